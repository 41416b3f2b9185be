// Package devices implements the devices command: an enumeration of the
// audio outputs the server could play through.
package devices

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/beni69/csengo/internal/sink"
)

// Command creates the devices command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := sink.EnumerateDevices()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tNAME\tDEFAULT")
			for i := range devices {
				def := ""
				if devices[i].IsDefault {
					def = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", devices[i].Index, devices[i].Name, def)
			}
			return w.Flush()
		},
	}
}
