package sink

import (
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
)

// SampleRate is the fixed output format of the sink. Every track is
// normalized to this rate (and to stereo) before it is appended.
const SampleRate beep.SampleRate = 48000

// silenceDuration is the length of the filler installed when the queue is
// empty. It bounds append-to-audible latency while letting the audio backend
// keep pulling instead of underrunning.
const silenceDuration = 500 * time.Millisecond

// stopCheckInterval is how much audio may play between checks of the stop
// flag, so a stop takes effect within roughly this long.
const stopCheckInterval = 420 * time.Millisecond

// Track is an in-memory handle to a sample-producing streamer plus an
// optional display name. A track without a name is the silence filler and is
// invisible to NowPlaying.
type Track struct {
	Name string
	Src  beep.Streamer
}

// NowPlaying is the observable identity of the track currently consumed by
// the sink. A nil *NowPlaying means only silence is playing.
type NowPlaying struct {
	Name      string    `json:"name"`
	StartedAt time.Time `json:"started_at"`
}

// silence returns the 500 ms zero-sample filler track.
func silence() Track {
	return Track{Src: beep.Silence(SampleRate.N(silenceDuration))}
}

// stopCheck wraps a streamer so that a raised stop flag ends the source
// within one check interval. The cut-off cascades into the sink's
// end-of-track handling.
type stopCheck struct {
	src       beep.Streamer
	flag      *atomic.Bool
	remaining int // samples until the next flag check
}

func newStopCheck(src beep.Streamer, flag *atomic.Bool) *stopCheck {
	return &stopCheck{
		src:       src,
		flag:      flag,
		remaining: SampleRate.N(stopCheckInterval),
	}
}

func (sc *stopCheck) Stream(samples [][2]float64) (n int, ok bool) {
	if sc.remaining <= 0 {
		if sc.flag.Load() {
			return 0, false
		}
		sc.remaining = SampleRate.N(stopCheckInterval)
	}
	if len(samples) > sc.remaining {
		samples = samples[:sc.remaining]
	}
	n, ok = sc.src.Stream(samples)
	sc.remaining -= n
	return n, ok
}

func (sc *stopCheck) Err() error {
	return sc.src.Err()
}
