// Package serve implements the server command: the full pipeline from the
// audio device to the web surface.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/beni69/csengo/internal/conf"
	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/httpcontroller"
	"github.com/beni69/csengo/internal/logging"
	"github.com/beni69/csengo/internal/mail"
	"github.com/beni69/csengo/internal/observability"
	"github.com/beni69/csengo/internal/player"
	"github.com/beni69/csengo/internal/scheduler"
	"github.com/beni69/csengo/internal/sink"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bell server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), settings)
		},
	}
}

// Run wires up and runs the whole server until the context is cancelled or a
// termination signal arrives.
func Run(ctx context.Context, settings *conf.Settings) error {
	logger := logging.ForService("serve")

	metrics, err := observability.NewMetrics(datastore.DBVersion)
	if err != nil {
		return err
	}

	store := datastore.New(settings.Main.DBPath, metrics.Datastore)
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close datastore", "error", err)
		}
	}()

	snk := sink.New(metrics.Playback)
	device, err := sink.OpenDevice(snk, settings.Audio.Device, metrics.Playback)
	if err != nil {
		return err
	}
	defer device.Close()

	p := player.New(store, snk, metrics.Playback)
	notifier := mail.New(settings, metrics.Mail)
	sched := scheduler.New(p, store, notifier, metrics.Scheduler, metrics.Playback)

	if _, err := sched.Recover(); err != nil {
		return err
	}

	if count, bytes, err := store.FileStats(); err == nil {
		metrics.Datastore.SetFileStats(count, bytes)
	}

	server := httpcontroller.New(settings, store, p, sched, metrics)
	serveErr := server.Start()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
