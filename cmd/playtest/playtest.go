// Package playtest implements the playtest command: a quick tone through the
// output device without starting the server.
package playtest

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/beni69/csengo/internal/conf"
	"github.com/beni69/csengo/internal/player"
	"github.com/beni69/csengo/internal/sink"
)

// Command creates the playtest command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "playtest",
		Short: "Play a short test tone on the output device",
		RunE: func(cmd *cobra.Command, args []string) error {
			snk := sink.New(nil)
			device, err := sink.OpenDevice(snk, settings.Audio.Device, nil)
			if err != nil {
				return err
			}
			defer device.Close()

			p := player.New(nil, snk, nil)
			if err := p.Playtest(); err != nil {
				return err
			}

			// one second of tone plus a little device latency
			time.Sleep(1500 * time.Millisecond)
			return nil
		},
	}
}
