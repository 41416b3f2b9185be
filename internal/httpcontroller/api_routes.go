package httpcontroller

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/errors"
)

func (s *Server) handleStop(c echo.Context) error {
	s.Player.Stop()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handlePlaytest(c echo.Context) error {
	if err := s.Player.Playtest(); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// handleExport dumps the persisted tasks as JSON. Now tasks never persist,
// so the export holds only scheduled and recurring entries.
func (s *Server) handleExport(c echo.Context) error {
	tasks, err := s.Store.ListTasks()
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []datastore.Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

// handleImport inserts and schedules every task from a JSON array that is
// not already present. Tasks that fail to schedule are rolled back so the
// store never holds a row without a timer.
func (s *Server) handleImport(c echo.Context) error {
	var tasks []datastore.Task
	if err := c.Bind(&tasks); err != nil {
		return errors.New(err).
			Component("http").
			Category(errors.CategoryValidation).
			Context("error", "invalid task list").
			Build()
	}

	imported, skipped, failed := 0, 0, 0
	for i := range tasks {
		task := tasks[i]

		exists, err := s.Store.TaskExists(task.Name)
		if err != nil {
			return err
		}
		if exists {
			skipped++
			continue
		}

		if err := s.Store.InsertTask(&task); err != nil {
			s.logger.Warn("import: insert failed", "task", task.Name, "error", err)
			failed++
			continue
		}
		if err := s.Scheduler.Schedule(task); err != nil {
			s.logger.Warn("import: schedule failed", "task", task.Name, "error", err)
			if _, derr := s.Store.DeleteTask(task.Name); derr != nil {
				s.logger.Error("import: rollback failed", "task", task.Name, "error", derr)
			}
			failed++
			continue
		}
		imported++
	}

	return c.String(http.StatusOK,
		fmt.Sprintf("imported %d, skipped %d, failed %d", imported, skipped, failed))
}
