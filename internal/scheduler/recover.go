package scheduler

import (
	"time"

	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/errors"
)

// Recover reloads persisted tasks after a restart and returns how many were
// rescheduled. Scheduled tasks whose time passed while the server was down
// are deleted without playing; every other task is rescheduled as if freshly
// created.
func (s *Scheduler) Recover() (int, error) {
	tasks, err := s.store.ListTasks()
	if err != nil {
		return 0, errors.New(err).
			Component("scheduler").
			Category(errors.CategoryDatabase).
			Context("operation", "recover").
			Build()
	}

	recovered := 0
	for i := range tasks {
		task := tasks[i]

		if task.Type == datastore.TypeScheduled && task.Time.Before(time.Now()) {
			s.logger.Warn("dropping expired task", "task", task.Name, "time", task.Time.String())
			if _, err := s.store.DeleteTask(task.Name); err != nil {
				s.logger.Error("failed to delete expired task", "task", task.Name, "error", err)
			}
			continue
		}

		if err := s.Schedule(task); err != nil {
			s.logger.Error("failed to recover task", "task", task.Name, "error", err)
			continue
		}
		recovered++
	}

	s.logger.Info("task recovery finished", "recovered", recovered, "total", len(tasks))
	return recovered, nil
}
