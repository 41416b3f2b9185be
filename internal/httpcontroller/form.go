package httpcontroller

import (
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/errors"
)

// formTimeFmt is the datetime-local input format, interpreted in the
// server's local zone.
const formTimeFmt = "2006-01-02T15:04"

// parseTaskForm builds a task from the htmx form fields. Scheduled tasks
// carry a single `time` field; recurring tasks carry `recurring-n` and
// `time-0` .. `time-{n-1}`.
func parseTaskForm(c echo.Context) (datastore.Task, error) {
	task := datastore.Task{
		Type:     c.FormValue("type"),
		Name:     c.FormValue("name"),
		FileName: c.FormValue("file_name"),
		Priority: parseCheckbox(c.FormValue("priority")),
	}

	switch task.Type {
	case datastore.TypeNow:

	case datastore.TypeScheduled:
		t, err := time.ParseInLocation(formTimeFmt, c.FormValue("time"), time.Local)
		if err != nil {
			return task, formError(err, "invalid time", task.Name)
		}
		task.Time = &t

	case datastore.TypeRecurring:
		n, err := strconv.Atoi(c.FormValue("recurring-n"))
		if err != nil || n < 1 {
			return task, formError(err, "invalid recurring count", task.Name)
		}
		for i := range n {
			ct, err := datastore.ParseClockTime(c.FormValue(fmt.Sprintf("time-%d", i)))
			if err != nil {
				return task, formError(err, "invalid recurring time", task.Name)
			}
			task.Times = append(task.Times, ct)
		}

	default:
		return task, formError(nil, "invalid task type", task.Name)
	}

	return task, task.Validate()
}

// parseCheckbox accepts the value shapes browsers and scripts send for a
// checkbox field. Absent or unrecognized values count as unchecked.
func parseCheckbox(v string) bool {
	switch v {
	case "on", "true", "1":
		return true
	default:
		return false
	}
}

func formError(err error, msg, taskName string) error {
	return errors.New(err).
		Component("http").
		Category(errors.CategoryValidation).
		Context("error", msg).
		Context("task", taskName).
		Build()
}
