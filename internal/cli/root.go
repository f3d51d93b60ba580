// Package cli holds the cobra commands shared by the eyesync binaries.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRoot returns the eyesync command tree.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "eyesync",
		Short:         "Gaze-contingent stimulus presentation",
		Long:          "eyesync presents visual and auditory stimuli frame by frame, sends trigger codes to a DLP-IO8-G box and pauses the timeline while the participant's eyes are off target.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newSetupCmd(), newTriggersCmd(), newRefreshCmd())
	return root
}
