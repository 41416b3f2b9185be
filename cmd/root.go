// Package cmd assembles the command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/beni69/csengo/cmd/devices"
	"github.com/beni69/csengo/cmd/playtest"
	"github.com/beni69/csengo/cmd/serve"
	"github.com/beni69/csengo/cmd/tasks"
	"github.com/beni69/csengo/internal/conf"
	"github.com/beni69/csengo/internal/logging"
)

// RootCommand creates and returns the root command. Running the binary with
// no subcommand starts the server.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "csengo",
		Short: "School bell broadcast server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve.Run(cmd.Context(), settings)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if settings.Debug {
			logging.Init("debug")
		}
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		playtest.Command(settings),
		tasks.Command(settings),
		devices.Command(),
	)
	return rootCmd
}
