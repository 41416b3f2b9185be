// Package tasks implements the tasks command: an offline listing of the
// persisted task table.
package tasks

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/beni69/csengo/internal/conf"
	"github.com/beni69/csengo/internal/datastore"
)

// Command creates the tasks command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the persisted tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings.Main.DBPath, nil)
			if err := store.Open(); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tasks, err := store.ListTasks()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tFILE\tPRIORITY\tTIME")
			for i := range tasks {
				t := &tasks[i]
				when := ""
				switch {
				case t.Time != nil:
					when = t.Time.Local().Format("2006-01-02 15:04")
				case len(t.Times) > 0:
					for j, ct := range t.Times {
						if j > 0 {
							when += " "
						}
						when += ct.String()
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", t.Name, t.Type, t.FileName, t.Priority, when)
			}
			return w.Flush()
		},
	}
}
