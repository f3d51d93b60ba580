package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"eyesync/engine"
	"eyesync/internal/app"
	"eyesync/internal/log"
	"eyesync/sdlio"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Choose plan, configuration and display in a window, then run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSetup(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// RunSetup shows the setup window and runs the chosen plan on the SDL backend.
// Closing the setup window is not an error.
func RunSetup(ctx context.Context, out io.Writer) error {
	logger := log.WithComponent("setup")
	cachePath := sdlio.SetupCachePath()
	s, err := sdlio.LoadSetup(cachePath)
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring setup cache")
	}

	quit, err := sdlio.Init()
	if err != nil {
		return err
	}
	ok, err := sdlio.RunSetup(s, logger)
	quit()
	if err != nil || !ok {
		return err
	}
	if err := s.Save(cachePath); err != nil {
		logger.Warn().Err(err).Str("path", cachePath).Msg("failed to remember setup")
	}

	sum, err := app.Run(ctx, app.Options{
		ConfigFile: s.ConfigFile,
		PlanFile:   s.PlanFile,
		Output:     s.OutputFile,
		Override: func(c *engine.Config) {
			c.Display.Width, c.Display.Height = s.Width, s.Height
			c.Display.Fullscreen = s.Fullscreen
			if s.Device != "" {
				c.Trigger.Device = s.Device
			}
		},
	}, openSDL)
	if sum.Results != "" {
		fmt.Fprintf(out, "Results saved to %s\n", sum.Results)
	}
	return err
}
