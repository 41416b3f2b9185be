package player

import (
	"bytes"
	"fmt"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// memReader adapts an in-memory buffer to the reader shapes the decoders
// want. Close is a no-op so a failed probe can retry with a fresh reader.
type memReader struct {
	*bytes.Reader
}

func (memReader) Close() error { return nil }

// decode probes the buffer against the supported formats and returns a
// streamer in the decoded file's native format. Uploads carry no trustworthy
// content type, so the bytes themselves decide.
func decode(data []byte) (beep.Streamer, beep.Format, error) {
	type probe struct {
		name string
		fn   func(memReader) (beep.StreamSeekCloser, beep.Format, error)
	}
	probes := []probe{
		{"mp3", func(r memReader) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(r) }},
		{"wav", func(r memReader) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(r) }},
		{"flac", func(r memReader) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(r) }},
		{"vorbis", func(r memReader) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(r) }},
	}

	for _, pr := range probes {
		streamer, format, err := pr.fn(memReader{bytes.NewReader(data)})
		if err == nil {
			return streamer, format, nil
		}
	}
	return nil, beep.Format{}, fmt.Errorf("unrecognized audio format (%d bytes)", len(data))
}

// channelMix routes a mono mixdown of the source through fixed per-channel
// gains. Priority sounds go to both channels; everything else plays on the
// left channel only, which feeds the bell circuit on the shared amplifier.
type channelMix struct {
	src         beep.Streamer
	left, right float64
}

func newChannelMix(src beep.Streamer, priority bool) *channelMix {
	right := 0.0
	if priority {
		right = 0.5
	}
	return &channelMix{src: src, left: 0.5, right: right}
}

func (c *channelMix) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = c.src.Stream(samples)
	for i := range n {
		mono := samples[i][0] + samples[i][1]
		samples[i][0] = mono * c.left
		samples[i][1] = mono * c.right
	}
	return n, ok
}

func (c *channelMix) Err() error {
	return c.src.Err()
}
