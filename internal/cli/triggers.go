package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"eyesync/dlp"
	"eyesync/trigger"
)

func newTriggersCmd() *cobra.Command {
	var table string
	var ports bool
	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "Print a trigger table or the available serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if ports {
				list, err := dlp.Ports()
				if err != nil {
					return err
				}
				for _, p := range list {
					fmt.Fprintln(out, p)
				}
				return nil
			}

			t, ok := trigger.TableByName(table)
			if !ok {
				return fmt.Errorf("unknown table %q (have %v)", table, trigger.TableNames())
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tPINS 1-8\tEVENT")
			for _, ev := range t.Events() {
				code, _ := t.Code(ev)
				fmt.Fprintf(w, "%d\t%s\t%s\n", code, trigger.Bits(code), ev)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&table, "table", trigger.VisualOddball.Name(), fmt.Sprintf("trigger table %v", trigger.TableNames()))
	cmd.Flags().BoolVar(&ports, "ports", false, "list serial ports instead")
	return cmd
}
