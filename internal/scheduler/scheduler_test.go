package scheduler

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/beni69/csengo/internal/conf"
	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/errors"
	"github.com/beni69/csengo/internal/mail"
	"github.com/beni69/csengo/internal/player"
	"github.com/beni69/csengo/internal/sink"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// wavBytes builds a minimal mono 16-bit PCM file of n silent samples.
func wavBytes(t *testing.T, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	dataLen := uint32(n * 2)

	buf.WriteString("RIFF")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, 36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(16)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(48000)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(96000)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(2)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(16)))
	buf.WriteString("data")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, dataLen))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, make([]int16, n)))
	return buf.Bytes()
}

type rig struct {
	sched  *Scheduler
	player *player.Player
	sink   *sink.Sink
	store  *datastore.DataStore
}

func newTestRig(t *testing.T) *rig {
	t.Helper()
	ds := datastore.New(filepath.Join(t.TempDir(), "csengo.db"), nil)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	require.NoError(t, ds.InsertFile(&datastore.File{Name: "bell.wav", Data: wavBytes(t, 480)}))

	s := sink.New(nil)
	p := player.New(ds, s, nil)
	notifier := mail.New(&conf.Settings{}, nil)
	return &rig{
		sched:  New(p, ds, notifier, nil, nil),
		player: p,
		sink:   s,
		store:  ds,
	}
}

func TestNowTaskPlaysImmediately(t *testing.T) {
	r := newTestRig(t)

	err := r.sched.Schedule(datastore.Task{
		Type: datastore.TypeNow, Name: "instant", FileName: "bell.wav",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r.sink.QueueLen())
}

func TestNowTaskMissingFile(t *testing.T) {
	r := newTestRig(t)

	err := r.sched.Schedule(datastore.Task{
		Type: datastore.TypeNow, Name: "instant", FileName: "missing.mp3",
	})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	assert.Equal(t, 0, r.sink.QueueLen())
}

func TestScheduledRejectsPastTime(t *testing.T) {
	r := newTestRig(t)

	past := time.Now().Add(-time.Minute)
	err := r.sched.Schedule(datastore.Task{
		Type: datastore.TypeScheduled, Name: "late", FileName: "bell.wav", Time: &past,
	})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestScheduledFiresAndDeletesRow(t *testing.T) {
	r := newTestRig(t)

	at := time.Now().Add(200 * time.Millisecond)
	task := datastore.Task{
		Type: datastore.TypeScheduled, Name: "ring-once", FileName: "bell.wav", Time: &at,
	}
	require.NoError(t, r.store.InsertTask(&task))
	require.NoError(t, r.sched.Schedule(task))

	require.Eventually(t, func() bool {
		if r.sink.QueueLen() != 1 {
			return false
		}
		exists, err := r.store.TaskExists("ring-once")
		return err == nil && !exists
	}, 3*time.Second, 20*time.Millisecond, "task fires and removes its row")
}

func TestScheduledCancelSkipsPlayback(t *testing.T) {
	r := newTestRig(t)

	at := time.Now().Add(time.Hour)
	require.NoError(t, r.sched.Schedule(datastore.Task{
		Type: datastore.TypeScheduled, Name: "cancel-me", FileName: "bell.wav", Time: &at,
	}))

	// the cancel channel is registered by the timer goroutine
	require.Eventually(t, func() bool {
		return r.player.Cancel("cancel-me")
	}, time.Second, 10*time.Millisecond)

	// the timer goroutine exits without touching the queue
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, r.sink.QueueLen())
}

func TestRecurringCancelStopsLoop(t *testing.T) {
	r := newTestRig(t)

	soon := time.Now().Add(time.Hour)
	require.NoError(t, r.sched.Schedule(datastore.Task{
		Type: datastore.TypeRecurring, Name: "daily", FileName: "bell.wav",
		Times: []datastore.ClockTime{{Hour: soon.Hour(), Minute: soon.Minute()}},
	}))

	require.Eventually(t, func() bool {
		return r.player.Cancel("daily")
	}, time.Second, 10*time.Millisecond)
}

func TestNextFire(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Budapest")
	require.NoError(t, err)

	now := time.Date(2026, 6, 15, 10, 0, 0, 0, loc)

	t.Run("later today", func(t *testing.T) {
		until, at, ok := nextFire([]datastore.ClockTime{{Hour: 12, Minute: 30}}, now)
		require.True(t, ok)
		assert.Equal(t, 2*time.Hour+30*time.Minute, until)
		assert.Equal(t, 12, at.Hour())
	})

	t.Run("rolls over to tomorrow", func(t *testing.T) {
		until, at, ok := nextFire([]datastore.ClockTime{{Hour: 7, Minute: 45}}, now)
		require.True(t, ok)
		assert.Equal(t, 21*time.Hour+45*time.Minute, until)
		assert.Equal(t, now.Day()+1, at.Day())
	})

	t.Run("picks the nearest of several", func(t *testing.T) {
		times := []datastore.ClockTime{
			{Hour: 7, Minute: 45},
			{Hour: 11, Minute: 0},
			{Hour: 13, Minute: 5},
		}
		until, at, ok := nextFire(times, now)
		require.True(t, ok)
		assert.Equal(t, time.Hour, until)
		assert.Equal(t, 11, at.Hour())
	})

	t.Run("skips a spring-forward gap", func(t *testing.T) {
		// 02:00-03:00 does not exist on this date in this zone
		gapDay := time.Date(2026, 3, 29, 1, 0, 0, 0, loc)
		until, at, ok := nextFire([]datastore.ClockTime{{Hour: 2, Minute: 30}}, gapDay)
		require.True(t, ok)
		assert.Equal(t, 30, at.Day(), "fires tomorrow instead")
		assert.Equal(t, 2, at.Hour())
		assert.Greater(t, until, 12*time.Hour)
	})
}

func TestRecoverDropsExpiredAndReschedulesRest(t *testing.T) {
	r := newTestRig(t)

	expired := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	require.NoError(t, r.store.InsertTask(&datastore.Task{
		Type: datastore.TypeScheduled, Name: "expired", FileName: "bell.wav", Time: &expired,
	}))
	require.NoError(t, r.store.InsertTask(&datastore.Task{
		Type: datastore.TypeScheduled, Name: "upcoming", FileName: "bell.wav", Time: &future,
	}))

	recovered, err := r.sched.Recover()
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	exists, err := r.store.TaskExists("expired")
	require.NoError(t, err)
	assert.False(t, exists, "expired one-shots are removed on recovery")

	exists, err = r.store.TaskExists("upcoming")
	require.NoError(t, err)
	assert.True(t, exists)

	// the recovered task is armed and cancellable
	require.Eventually(t, func() bool {
		return r.player.Cancel("upcoming")
	}, time.Second, 10*time.Millisecond)
}
