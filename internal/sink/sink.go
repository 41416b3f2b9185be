// Package sink implements the low-level audio pipeline: a FIFO queue of
// tracks drained by a single consumer that never starves the audio backend.
// For the higher-level interface, see internal/player.
package sink

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beni69/csengo/internal/logging"
	"github.com/beni69/csengo/internal/observability/metrics"
)

// Sink owns the play queue and the currently playing track. Exactly one
// consumer calls Stream; any number of goroutines may call Append and Stop.
type Sink struct {
	mu    sync.Mutex // guards queue, held only for push/pop
	queue []Track

	stop atomic.Bool

	// consumer-side state, touched only by the streaming thread
	cur        Track
	curSamples int // samples played of the current named track

	watch   *watch
	metrics *metrics.PlaybackMetrics
	logger  *slog.Logger
}

// New creates an idle sink. The metrics collector may be nil (tests).
func New(m *metrics.PlaybackMetrics) *Sink {
	return &Sink{
		watch:   newWatch(),
		metrics: m,
		logger:  logging.ForService("sink"),
	}
}

// Append queues a track for playback and clears the stop flag so playback
// resumes after a stop. The track's source is wrapped with a periodic stop
// check before it enters the queue.
func (s *Sink) Append(t Track) {
	s.stop.Store(false)

	t.Src = newStopCheck(t.Src, &s.stop)

	s.mu.Lock()
	s.queue = append(s.queue, t)
	size := len(s.queue)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetQueueSize(size)
	}
}

// Stop clears the queue and raises the stop flag. The currently playing
// track observes the flag within one check interval and ends; the consumer
// then transitions to silence. The sink stays usable: a subsequent Append
// resumes playback.
func (s *Sink) Stop() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()

	s.stop.Store(true)

	if s.metrics != nil {
		s.metrics.SetQueueSize(0)
	}
	s.logger.Info("playback stopped")
}

// QueueLen returns the number of queued tracks, not counting the one playing.
func (s *Sink) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Stream fills samples from the current track, popping the next queued track
// whenever one ends and synthesizing silence when the queue is empty. It
// never reports end-of-stream: an underrun would tear down the output
// stream, so the backend must always receive samples.
func (s *Sink) Stream(samples [][2]float64) (n int, ok bool) {
	filled := 0
	for filled < len(samples) {
		if s.cur.Src != nil {
			sn, sok := s.cur.Src.Stream(samples[filled:])
			filled += sn
			if s.cur.Name != "" {
				s.curSamples += sn
			}
			if sok {
				continue
			}
		}
		s.advance()
	}
	return len(samples), true
}

// Err implements beep.Streamer; the sink itself never fails.
func (s *Sink) Err() error { return nil }

// advance finishes the current track and installs the next one, or the
// silence filler when the queue is empty.
func (s *Sink) advance() {
	prev := s.cur

	if prev.Name != "" {
		s.logger.Debug("end of track", "name", prev.Name)
		if s.metrics != nil {
			s.metrics.RecordPlaybackSeconds(prev.Name, float64(s.curSamples)/float64(SampleRate))
		}
		s.curSamples = 0
	}

	s.mu.Lock()
	if len(s.queue) > 0 {
		s.cur = s.queue[0]
		s.queue = s.queue[1:]
	} else {
		s.cur = silence()
	}
	size := len(s.queue)
	s.mu.Unlock()

	if s.cur.Name != "" {
		s.logger.Info("playing", "name", s.cur.Name)
	}
	if s.metrics != nil {
		s.metrics.SetQueueSize(size)
		s.metrics.SetPlaybackActive(s.cur.Name != "")
	}

	// nameless-to-nameless transitions are not republished
	if s.cur.Name == "" && prev.Name == "" {
		return
	}
	if s.cur.Name == "" {
		s.watch.publish(nil)
	} else {
		s.watch.publish(&NowPlaying{Name: s.cur.Name, StartedAt: time.Now()})
	}
}

// NowPlaying returns the latest published now-playing value, or nil when
// only silence is playing.
func (s *Sink) NowPlaying() *NowPlaying {
	return s.watch.current()
}

// Subscribe returns a channel that receives every now-playing change with
// latest-value-wins semantics, plus a cancel function that must be called to
// release the subscription.
func (s *Sink) Subscribe() (<-chan *NowPlaying, func()) {
	return s.watch.subscribe()
}
