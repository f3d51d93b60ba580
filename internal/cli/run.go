package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"eyesync/engine"
	"eyesync/internal/app"
)

type runFlags struct {
	config     string
	plan       string
	output     string
	device     string
	task       string
	backend    string
	fullscreen bool
	width      int
	height     int
}

func (f *runFlags) override(cmd *cobra.Command) func(*engine.Config) {
	return func(c *engine.Config) {
		flags := cmd.Flags()
		if flags.Changed("dlp") {
			c.Trigger.Device = f.device
		}
		if flags.Changed("fullscreen") {
			c.Display.Fullscreen = f.fullscreen
		}
		if flags.Changed("width") {
			c.Display.Width = f.width
		}
		if flags.Changed("height") {
			c.Display.Height = f.height
		}
	}
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a session plan",
		Long: `Run every step of a session plan CSV and save the results and the event log.

Results are written next to --output with a timestamp inserted before the
extension. Quitting from the pause dialog saves what was recorded so far and
exits with status 1.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			open, err := opener(f.backend)
			if err != nil {
				return err
			}
			sum, err := app.Run(cmd.Context(), app.Options{
				ConfigFile: f.config,
				PlanFile:   f.plan,
				Output:     f.output,
				Task:       f.task,
				Override:   f.override(cmd),
			}, open)
			if sum.Results != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", sum.Results)
			}
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.config, "config", "", "YAML configuration file")
	flags.StringVar(&f.plan, "plan", "", "session plan CSV")
	flags.StringVar(&f.output, "output", "results.csv", "results CSV")
	flags.StringVar(&f.device, "dlp", "", "DLP-IO8-G serial device (overrides trigger.device)")
	flags.StringVar(&f.task, "task", "", "paradigm name used in logs (default: plan file name)")
	flags.StringVar(&f.backend, "backend", backendSDL, "presentation backend: sdl or console")
	flags.BoolVar(&f.fullscreen, "fullscreen", false, "fullscreen window")
	flags.IntVar(&f.width, "width", 0, "window width in pixels")
	flags.IntVar(&f.height, "height", 0, "window height in pixels")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}
