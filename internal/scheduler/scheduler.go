// Package scheduler turns persisted tasks into timer goroutines that fire
// playback at the right moment. Each scheduled or recurring task gets its own
// goroutine parked on a timer, racing a cancellation channel registered with
// the player.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/errors"
	"github.com/beni69/csengo/internal/logging"
	"github.com/beni69/csengo/internal/mail"
	"github.com/beni69/csengo/internal/observability/metrics"
	"github.com/beni69/csengo/internal/player"
)

// Scheduler dispatches tasks to timer goroutines and plays them through the
// player when they fire.
type Scheduler struct {
	player   *player.Player
	store    datastore.Interface
	notifier *mail.Notifier
	metrics  *metrics.SchedulerMetrics
	playback *metrics.PlaybackMetrics
	logger   *slog.Logger
}

// New creates a Scheduler. The notifier may be a no-op instance and both
// metrics collectors may be nil (tests).
func New(p *player.Player, store datastore.Interface, notifier *mail.Notifier, sched *metrics.SchedulerMetrics, playback *metrics.PlaybackMetrics) *Scheduler {
	return &Scheduler{
		player:   p,
		store:    store,
		notifier: notifier,
		metrics:  sched,
		playback: playback,
		logger:   logging.ForService("scheduler"),
	}
}

// Schedule dispatches a validated task. Now tasks play synchronously;
// scheduled and recurring tasks spawn a timer goroutine and return
// immediately. A scheduled task whose time already passed is rejected.
func (s *Scheduler) Schedule(task datastore.Task) error {
	if err := task.Validate(); err != nil {
		if s.metrics != nil {
			s.metrics.RecordTaskFailed(task.Type, task.Name)
		}
		return err
	}

	switch task.Type {
	case datastore.TypeNow:
		if err := s.player.PlayFile(task.FileName, task.Priority); err != nil {
			s.recordPlayback(task, false)
			return err
		}
		s.recordPlayback(task, true)

	case datastore.TypeScheduled:
		until := time.Until(*task.Time)
		if until < 0 {
			if s.metrics != nil {
				s.metrics.RecordTaskFailed(task.Type, task.Name)
			}
			return errors.Newf("scheduled time is in the past").
				Component("scheduler").
				Category(errors.CategoryValidation).
				Context("task", task.Name).
				Context("time", task.Time.String()).
				Build()
		}
		if s.metrics != nil {
			s.metrics.IncActiveTasks(datastore.TypeScheduled)
		}
		go s.runScheduled(task)

	case datastore.TypeRecurring:
		if s.metrics != nil {
			s.metrics.IncActiveTasks(datastore.TypeRecurring)
		}
		go s.runRecurring(task)
	}

	if s.metrics != nil {
		s.metrics.RecordTaskCreated(task.Type)
	}
	return nil
}

// runScheduled waits for the task's one instant, plays it, notifies, and
// removes the task row. Cancellation wins over a simultaneous fire.
func (s *Scheduler) runScheduled(task datastore.Task) {
	target := *task.Time
	s.logger.Debug("scheduled", "task", task.Name, "in", time.Until(target).Round(time.Second).String())

	rx := s.player.CreateCancel(task.Name)
	if !s.wait(rx, time.Until(target)) {
		s.logger.Info("cancelled", "task", task.Name)
		if s.metrics != nil {
			s.metrics.DecActiveTasks(datastore.TypeScheduled)
		}
		return
	}

	s.recordDrift(task, target)

	if err := s.player.PlayFile(task.FileName, task.Priority); err != nil {
		s.logger.Error("scheduled play failed", "task", task.Name, "file", task.FileName, "error", err)
		s.recordPlayback(task, false)
	} else {
		s.recordPlayback(task, true)
		s.notifier.TaskDone(task.FileName, target)
	}

	if s.metrics != nil {
		s.metrics.DecActiveTasks(datastore.TypeScheduled)
	}

	if _, err := s.store.DeleteTask(task.Name); err != nil {
		s.logger.Error("failed to delete task after scheduled play", "task", task.Name, "error", err)
	}
	if !s.player.DeleteCancel(task.Name) {
		s.logger.Error("failed to delete cancel channel", "task", task.Name)
	}
}

// runRecurring loops forever, sleeping until the nearest time-of-day and
// playing on each wake. Only cancellation ends the loop.
func (s *Scheduler) runRecurring(task datastore.Task) {
	rx := s.player.CreateCancel(task.Name)

	for {
		until, expected, ok := nextFire(task.Times, time.Now())
		if !ok {
			s.logger.Error("no valid fire time", "task", task.Name)
			if s.metrics != nil {
				s.metrics.DecActiveTasks(datastore.TypeRecurring)
			}
			return
		}
		s.logger.Debug("recurring", "task", task.Name,
			"in", until.Round(time.Second).String(),
			"at", expected.Format("15:04"))

		if until < 0 {
			s.logger.Warn("unexpected negative duration, executing immediately", "task", task.Name)
			until = 0
		}

		if !s.wait(rx, until) {
			s.logger.Info("cancelled", "task", task.Name)
			if s.metrics != nil {
				s.metrics.DecActiveTasks(datastore.TypeRecurring)
			}
			return
		}

		s.recordDrift(task, expected)

		if err := s.player.PlayFile(task.FileName, task.Priority); err != nil {
			s.logger.Error("recurring play failed", "task", task.Name, "file", task.FileName, "error", err)
			s.recordPlayback(task, false)
		} else {
			s.logger.Debug("added to queue, going back to sleep", "task", task.Name)
			s.recordPlayback(task, true)
		}
	}
}

// wait sleeps for d or until cancel fires, whichever comes first. It returns
// true when the timer won. Cancellation is preferred when both are ready at
// wake-up.
func (s *Scheduler) wait(cancel <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-cancel:
		return false
	case <-timer.C:
		select {
		case <-cancel:
			return false
		default:
			return true
		}
	}
}

// nextFire picks the nearest upcoming occurrence among the given times of
// day. An entry swallowed by a DST gap today falls back to tomorrow; ok is
// false only when no entry yields a valid instant.
func nextFire(times []datastore.ClockTime, now time.Time) (time.Duration, time.Time, bool) {
	loc := now.Location()
	var best time.Time
	found := false

	for _, target := range times {
		candidate := target.On(now, loc)
		if !candidate.After(now) || !clockMatches(candidate, target) {
			candidate = target.On(now.AddDate(0, 0, 1), loc)
			if !clockMatches(candidate, target) {
				continue
			}
		}
		if !found || candidate.Before(best) {
			best = candidate
			found = true
		}
	}
	if !found {
		return 0, time.Time{}, false
	}
	return best.Sub(now), best, true
}

// clockMatches reports whether the instant still reads the intended HH:MM
// after zone normalization.
func clockMatches(t time.Time, c datastore.ClockTime) bool {
	return t.Hour() == c.Hour && t.Minute() == c.Minute
}

func (s *Scheduler) recordDrift(task datastore.Task, expected time.Time) {
	drift := time.Since(expected)
	if drift < 0 {
		drift = -drift
	}
	if s.metrics != nil {
		s.metrics.RecordDrift(task.Type, task.Name, drift.Seconds())
	}
}

func (s *Scheduler) recordPlayback(task datastore.Task, success bool) {
	if s.playback == nil {
		return
	}
	if success {
		s.playback.RecordPlaybackSuccess(task.Type, task.Name)
	} else {
		s.playback.RecordPlaybackFailure(task.Type, task.Name)
	}
}
