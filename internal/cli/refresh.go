package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"eyesync/engine"
	"eyesync/internal/log"
)

func newRefreshCmd() *cobra.Command {
	var config string
	var frames int
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Measure the display refresh period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := engine.LoadConfig(config)
			if err != nil {
				return err
			}
			cfg.Audio.Enabled = false
			logger := log.WithComponent("refresh")
			b, err := openSDL(cfg, engine.NewMonotonicClock(), logger)
			if err != nil {
				return err
			}
			defer b.Close()

			stats, err := engine.MeasureRefresh(b.Devices.Display, engine.NewMonotonicClock(), cfg.Display.Background, frames)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "frames: %d\nmean: %s (%.3f Hz)\nstddev: %s\nnominal: %s\n",
				stats.Frames, stats.Mean, stats.Rate(), stats.StdDev, stats.Nominal)
			return nil
		},
	}
	cmd.Flags().StringVar(&config, "config", "", "YAML configuration file")
	cmd.Flags().IntVar(&frames, "frames", 120, "number of flips to time")
	return cmd
}
