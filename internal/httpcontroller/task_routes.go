package httpcontroller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/sink"
)

type indexData struct {
	Tasks []datastore.Task
	Files []string
	Now   *sink.NowPlaying
}

func (s *Server) handleIndex(c echo.Context) error {
	tasks, err := s.Store.ListTasks()
	if err != nil {
		return err
	}
	files, err := s.Store.ListFiles()
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "index", indexData{
		Tasks: tasks,
		Files: files,
		Now:   s.Player.NowPlaying(),
	})
}

func (s *Server) handleTaskList(c echo.Context) error {
	return s.renderTasks(c, http.StatusOK)
}

func (s *Server) handleTaskCreate(c echo.Context) error {
	task, err := parseTaskForm(c)
	if err != nil {
		return err
	}

	if task.Type != datastore.TypeNow {
		if err := s.Store.InsertTask(&task); err != nil {
			return err
		}
	}

	if err := s.Scheduler.Schedule(task); err != nil {
		// don't leave behind a row that never got a timer
		if task.Type != datastore.TypeNow {
			if _, derr := s.Store.DeleteTask(task.Name); derr != nil {
				s.logger.Error("failed to roll back task", "task", task.Name, "error", derr)
			}
		}
		return err
	}

	return s.renderTasks(c, http.StatusOK)
}

func (s *Server) handleTaskDelete(c echo.Context) error {
	name := c.Param("name")

	deleted, err := s.Store.DeleteTask(name)
	if err != nil {
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	s.Player.Cancel(name)
	return s.renderTasks(c, http.StatusOK)
}

func (s *Server) renderTasks(c echo.Context, status int) error {
	tasks, err := s.Store.ListTasks()
	if err != nil {
		return err
	}
	return c.Render(status, "tasks", tasks)
}
