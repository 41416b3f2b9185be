package player

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/errors"
	"github.com/beni69/csengo/internal/sink"
)

// wavBytes builds a minimal mono 16-bit PCM file around the given samples.
func wavBytes(t *testing.T, sampleRate uint32, samples []int16) []byte {
	t.Helper()
	var buf bytes.Buffer
	dataLen := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, 36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(16)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(1))) // PCM
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(1))) // mono
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, sampleRate))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, sampleRate*2))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(2)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(16)))
	buf.WriteString("data")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, dataLen))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, samples))
	return buf.Bytes()
}

func newTestPlayer(t *testing.T) (*Player, *sink.Sink, *datastore.DataStore) {
	t.Helper()
	ds := datastore.New(filepath.Join(t.TempDir(), "csengo.db"), nil)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	s := sink.New(nil)
	return New(ds, s, nil), s, ds
}

func TestDecodeProbesWav(t *testing.T) {
	t.Parallel()

	data := wavBytes(t, 44100, make([]int16, 256))
	streamer, format, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, beep.SampleRate(44100), format.SampleRate)

	buf := make([][2]float64, 256)
	n, ok := streamer.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 256, n)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, _, err := decode([]byte("definitely not audio data"))
	assert.Error(t, err)
}

func TestPlayBufferQueuesDecodedTrack(t *testing.T) {
	t.Parallel()
	p, s, _ := newTestPlayer(t)

	data := wavBytes(t, 48000, make([]int16, 480))
	require.NoError(t, p.PlayBuffer(data, "bell.wav", false))
	assert.Equal(t, 1, s.QueueLen())
}

func TestPlayBufferRejectsUndecodableBytes(t *testing.T) {
	t.Parallel()
	p, s, _ := newTestPlayer(t)

	err := p.PlayBuffer([]byte{0xde, 0xad, 0xbe, 0xef}, "bad.bin", false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDecode))
	assert.Equal(t, 0, s.QueueLen())
}

func TestPlayFileResolvesStoreAndReportsMissing(t *testing.T) {
	t.Parallel()
	p, s, ds := newTestPlayer(t)

	data := wavBytes(t, 48000, make([]int16, 480))
	require.NoError(t, ds.InsertFile(&datastore.File{Name: "bell.wav", Data: data}))

	require.NoError(t, p.PlayFile("bell.wav", true))
	assert.Equal(t, 1, s.QueueLen())

	err := p.PlayFile("missing.mp3", false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestPlaytestQueuesTone(t *testing.T) {
	t.Parallel()
	p, s, _ := newTestPlayer(t)

	require.NoError(t, p.Playtest())
	assert.Equal(t, 1, s.QueueLen())

	// the tone is audible but attenuated
	buf := make([][2]float64, 4096)
	n, _ := s.Stream(buf)
	require.Equal(t, len(buf), n)

	peak := 0.0
	for i := range buf {
		if v := buf[i][0]; v > peak {
			peak = v
		}
	}
	assert.Greater(t, peak, 0.01)
	assert.Less(t, peak, 0.5)
}

func TestChannelMixRouting(t *testing.T) {
	t.Parallel()

	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i][0] = 0.4
			samples[i][1] = 0.4
		}
		return len(samples), true
	})

	tests := []struct {
		name     string
		priority bool
		wantL    float64
		wantR    float64
	}{
		{"priority plays on both channels", true, 0.4, 0.4},
		{"normal plays on left only", false, 0.4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mix := newChannelMix(src, tt.priority)
			buf := make([][2]float64, 16)
			n, ok := mix.Stream(buf)
			require.True(t, ok)
			require.Equal(t, len(buf), n)
			assert.InDelta(t, tt.wantL, buf[0][0], 1e-9)
			assert.InDelta(t, tt.wantR, buf[0][1], 1e-9)
		})
	}
}

func TestCancelRegistry(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestPlayer(t)

	ch := p.CreateCancel("morning-bell")

	select {
	case <-ch:
		t.Fatal("channel fired without a cancel")
	default:
	}

	assert.True(t, p.Cancel("morning-bell"))
	select {
	case <-ch:
	default:
		t.Fatal("cancel did not fire the channel")
	}

	// already removed
	assert.False(t, p.Cancel("morning-bell"))
	assert.False(t, p.DeleteCancel("morning-bell"))

	p.CreateCancel("evening-bell")
	assert.True(t, p.DeleteCancel("evening-bell"))
	assert.False(t, p.Cancel("evening-bell"), "deleted channels cannot be cancelled")
}
