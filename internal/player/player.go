// Package player is the high-level playback interface: it resolves audio
// files from the store, decodes and normalizes them, and feeds the sink.
package player

import (
	"log/slog"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"

	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/errors"
	"github.com/beni69/csengo/internal/logging"
	"github.com/beni69/csengo/internal/observability/metrics"
	"github.com/beni69/csengo/internal/sink"
)

// Player resolves files, decodes them and appends them to the sink. It also
// owns the cancellation registry for scheduled tasks.
type Player struct {
	store   datastore.Interface
	sink    *sink.Sink
	metrics *metrics.PlaybackMetrics
	logger  *slog.Logger

	cancels *cancelRegistry
}

// New creates a Player on top of the given store and sink. The metrics
// collector may be nil (tests).
func New(store datastore.Interface, s *sink.Sink, m *metrics.PlaybackMetrics) *Player {
	return &Player{
		store:   store,
		sink:    s,
		metrics: m,
		logger:  logging.ForService("player"),
		cancels: newCancelRegistry(),
	}
}

// PlayFile reads the named file from the store and queues it for playback.
// priority routes the sound to both output channels instead of left only.
func (p *Player) PlayFile(fname string, priority bool) error {
	file, err := p.store.GetFile(fname)
	if err != nil {
		return err
	}
	return p.PlayBuffer(file.Data, fname, priority)
}

// PlayBuffer decodes the given bytes and queues them for playback under the
// given display name. The bytes do not have to exist in the store.
func (p *Player) PlayBuffer(data []byte, name string, priority bool) error {
	streamer, format, err := decode(data)
	if err != nil {
		return errors.New(err).
			Component("player").
			Category(errors.CategoryDecode).
			Context("file", name).
			Build()
	}

	src := beep.Streamer(streamer)
	if format.SampleRate != sink.SampleRate {
		src = beep.Resample(3, format.SampleRate, sink.SampleRate, src)
	}
	src = newChannelMix(src, priority)

	p.sink.Append(sink.Track{Name: name, Src: src})
	p.logger.Debug("queued", "name", name, "priority", priority, "sample_rate", format.SampleRate)
	return nil
}

// Playtest queues one second of a quiet 880 Hz tone, for verifying that the
// output device works end to end.
func (p *Player) Playtest() error {
	tone, err := generators.SineTone(sink.SampleRate, 880)
	if err != nil {
		return errors.New(err).
			Component("player").
			Category(errors.CategoryAudio).
			Build()
	}
	src := beep.Take(sink.SampleRate.N(time.Second), tone)
	src = &effects.Gain{Streamer: src, Gain: -0.80}

	p.sink.Append(sink.Track{Name: "playtest", Src: src})
	return nil
}

// Stop drops the queue and cuts the currently playing track.
func (p *Player) Stop() {
	p.sink.Stop()
}

// NowPlaying reports the currently playing track, or nil during silence.
func (p *Player) NowPlaying() *sink.NowPlaying {
	return p.sink.NowPlaying()
}

// NowPlayingStream subscribes to now-playing changes. The returned cancel
// function releases the subscription.
func (p *Player) NowPlayingStream() (<-chan *sink.NowPlaying, func()) {
	return p.sink.Subscribe()
}
