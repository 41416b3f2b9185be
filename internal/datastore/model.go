package datastore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/beni69/csengo/internal/errors"
)

// Task types as stored in the tasks table and exchanged over the API.
const (
	TypeNow       = "now"
	TypeScheduled = "scheduled"
	TypeRecurring = "recurring"
)

// timeFmt is the wall-clock format of recurring times, in the db and on the wire.
const timeFmt = "15:04"

// dbTimeFmt is the persisted encoding of scheduled datetimes: RFC3339 with
// seconds precision and a trailing Z.
const dbTimeFmt = "2006-01-02T15:04:05Z"

// File is an uploaded audio clip. Name is the primary key.
type File struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// ClockTime is a wall-clock time of day (HH:MM) with no date or zone attached.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses an HH:MM string.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse(timeFmt, strings.TrimSpace(s))
	if err != nil {
		return ClockTime{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("value", s).
			Build()
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On anchors the wall-clock time onto a calendar date in the given location.
// The result is whatever the zone makes of that local time; during a DST
// spring-forward gap the normalized result will not read back HH:MM.
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, loc)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Task is a user-declared intent to play a named audio file: immediately,
// once at a future instant, or daily at a set of wall-clock times. Tasks are
// immutable; "edit" is delete + create. Now tasks are never persisted.
type Task struct {
	Type     string      `json:"type"`
	Name     string      `json:"name"`
	Priority bool        `json:"priority"`
	FileName string      `json:"file_name"`
	Time     *time.Time  `json:"time,omitempty"`  // scheduled only
	Times    []ClockTime `json:"times,omitempty"` // recurring only
}

// Validate checks the structural invariants of a task.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return validationError("task name must not be empty", t.Name)
	}
	if strings.TrimSpace(t.FileName) == "" {
		return validationError("file name must not be empty", t.Name)
	}
	switch t.Type {
	case TypeNow:
		return nil
	case TypeScheduled:
		if t.Time == nil {
			return validationError("scheduled task needs a time", t.Name)
		}
	case TypeRecurring:
		if len(t.Times) == 0 {
			return validationError("recurring task needs at least one time", t.Name)
		}
	default:
		return validationError("unknown task type", t.Name)
	}
	return nil
}

func validationError(msg, taskName string) error {
	return errors.Newf("%s", msg).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("task", taskName).
		Build()
}

// encodeTime renders the persisted time column for a task: RFC3339 UTC for
// scheduled, semicolon-joined HH:MM values for recurring, empty otherwise.
func (t *Task) encodeTime() string {
	switch t.Type {
	case TypeScheduled:
		return t.Time.UTC().Format(dbTimeFmt)
	case TypeRecurring:
		parts := make([]string, len(t.Times))
		for i, c := range t.Times {
			parts[i] = c.String()
		}
		return strings.Join(parts, ";")
	default:
		return ""
	}
}

// decodeTime parses the persisted time column back into the task.
func (t *Task) decodeTime(raw string) error {
	switch t.Type {
	case TypeScheduled:
		parsed, err := time.Parse(dbTimeFmt, raw)
		if err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("task", t.Name).
				Context("value", raw).
				Build()
		}
		local := parsed.Local()
		t.Time = &local
	case TypeRecurring:
		parts := strings.Split(raw, ";")
		times := make([]ClockTime, 0, len(parts))
		for _, p := range parts {
			c, err := ParseClockTime(p)
			if err != nil {
				return err
			}
			times = append(times, c)
		}
		t.Times = times
	}
	return nil
}
