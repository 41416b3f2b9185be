package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beni69/csengo/internal/errors"
)

func newTestStore(t *testing.T) *DataStore {
	t.Helper()
	ds := New(filepath.Join(t.TempDir(), "csengo.db"), nil)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestMigrationsSetUserVersion(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	var version int
	require.NoError(t, ds.DB.Raw("PRAGMA user_version").Scan(&version).Error)
	assert.Equal(t, DBVersion, version)

	// reopening an up-to-date database is a no-op
	require.NoError(t, ds.migrate())
}

func TestFileRoundTrip(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	file := &File{Name: "becsengo.mp3", Data: []byte{0xff, 0xfb, 0x90, 0x00}}
	require.NoError(t, ds.InsertFile(file))

	got, err := ds.GetFile("becsengo.mp3")
	require.NoError(t, err)
	assert.Equal(t, file.Data, got.Data)

	names, err := ds.ListFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"becsengo.mp3"}, names)

	count, bytes, err := ds.FileStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.EqualValues(t, 4, bytes)

	existed, err := ds.DeleteFile("becsengo.mp3")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = ds.DeleteFile("becsengo.mp3")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestInsertFileNameConflict(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	require.NoError(t, ds.InsertFile(&File{Name: "a.mp3", Data: []byte{1}}))
	err := ds.InsertFile(&File{Name: "a.mp3", Data: []byte{2}})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConflict))
}

func TestGetFileNotFound(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	_, err := ds.GetFile("missing.mp3")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestTaskRoundTrip(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	fire := time.Date(2026, 9, 1, 7, 45, 0, 0, time.Local)
	scheduled := &Task{
		Type:     TypeScheduled,
		Name:     "elso ora",
		Priority: true,
		FileName: "becsengo.mp3",
		Time:     &fire,
	}
	recurring := &Task{
		Type:     TypeRecurring,
		Name:     "nagyszunet",
		FileName: "kicsengo.mp3",
		Times:    []ClockTime{{Hour: 9, Minute: 45}, {Hour: 11, Minute: 40}},
	}
	require.NoError(t, ds.InsertTask(scheduled))
	require.NoError(t, ds.InsertTask(recurring))

	tasks, err := ds.ListTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	got, err := ds.GetTask("elso ora")
	require.NoError(t, err)
	assert.Equal(t, TypeScheduled, got.Type)
	assert.True(t, got.Priority)
	assert.Equal(t, "becsengo.mp3", got.FileName)
	require.NotNil(t, got.Time)
	assert.True(t, fire.Equal(*got.Time), "persisted time survives the round trip")

	got, err = ds.GetTask("nagyszunet")
	require.NoError(t, err)
	assert.Equal(t, []ClockTime{{Hour: 9, Minute: 45}, {Hour: 11, Minute: 40}}, got.Times)

	exists, err := ds.TaskExists("nagyszunet")
	require.NoError(t, err)
	assert.True(t, exists)

	existed, err := ds.DeleteTask("nagyszunet")
	require.NoError(t, err)
	assert.True(t, existed)

	// idempotent at the semantic level: second delete reports false
	existed, err = ds.DeleteTask("nagyszunet")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestInsertTaskRejectsNowAndDuplicates(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	err := ds.InsertTask(&Task{Type: TypeNow, Name: "azonnal", FileName: "a.mp3"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	fire := time.Now().Add(time.Hour)
	task := &Task{Type: TypeScheduled, Name: "dupla", FileName: "a.mp3", Time: &fire}
	require.NoError(t, ds.InsertTask(task))

	err = ds.InsertTask(task)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConflict))
}

func TestPersistedTimeEncoding(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	fire := time.Date(2026, 3, 15, 8, 0, 30, 500_000_000, time.Local)
	require.NoError(t, ds.InsertTask(&Task{
		Type: TypeScheduled, Name: "enc", FileName: "a.mp3", Time: &fire,
	}))

	var raw string
	require.NoError(t, ds.DB.Raw("SELECT time FROM tasks WHERE name = ?", "enc").Scan(&raw).Error)
	assert.Equal(t, fire.UTC().Format("2006-01-02T15:04:05Z"), raw)

	require.NoError(t, ds.InsertTask(&Task{
		Type: TypeRecurring, Name: "enc2", FileName: "a.mp3",
		Times: []ClockTime{{Hour: 7, Minute: 45}, {Hour: 13, Minute: 5}},
	}))
	require.NoError(t, ds.DB.Raw("SELECT time FROM tasks WHERE name = ?", "enc2").Scan(&raw).Error)
	assert.Equal(t, "07:45;13:05", raw)
}

func TestTaskValidation(t *testing.T) {
	t.Parallel()

	fire := time.Now().Add(time.Minute)
	tests := []struct {
		name string
		task Task
		ok   bool
	}{
		{"valid now", Task{Type: TypeNow, Name: "n", FileName: "f"}, true},
		{"valid scheduled", Task{Type: TypeScheduled, Name: "n", FileName: "f", Time: &fire}, true},
		{"valid recurring", Task{Type: TypeRecurring, Name: "n", FileName: "f", Times: []ClockTime{{8, 0}}}, true},
		{"empty name", Task{Type: TypeNow, Name: " ", FileName: "f"}, false},
		{"empty file", Task{Type: TypeNow, Name: "n", FileName: ""}, false},
		{"scheduled without time", Task{Type: TypeScheduled, Name: "n", FileName: "f"}, false},
		{"recurring without times", Task{Type: TypeRecurring, Name: "n", FileName: "f"}, false},
		{"bogus type", Task{Type: "sometimes", Name: "n", FileName: "f"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.task.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestClockTimeParse(t *testing.T) {
	t.Parallel()

	c, err := ParseClockTime("07:05")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 7, Minute: 5}, c)
	assert.Equal(t, "07:05", c.String())

	_, err = ParseClockTime("25:00")
	assert.Error(t, err)
	_, err = ParseClockTime("7am")
	assert.Error(t, err)
}
