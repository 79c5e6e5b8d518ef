// Package tasklist wires the repository, period filter, reminder scheduler
// and audit trail into the operations the CLI and TUI drive.
package tasklist

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fentz26/duebell/internal/audit"
	"github.com/fentz26/duebell/internal/models"
	"github.com/fentz26/duebell/internal/period"
	"github.com/fentz26/duebell/internal/repository"
	"github.com/fentz26/duebell/internal/scheduler"
)

// minPrefix is the shortest id prefix accepted as a reference.
const minPrefix = 4

// Service provides the task list business logic.
type Service struct {
	repo      *repository.Repository
	scheduler *scheduler.Scheduler
	pdr       *audit.PDRWriter
	logger    *log.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new task list service.
func NewService(repo *repository.Repository, sched *scheduler.Scheduler, pdr *audit.PDRWriter, logger *log.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		scheduler: sched,
		pdr:       pdr,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Load reads the stored collection. Reminders for loaded tasks are not armed.
func (s *Service) Load() []models.Task {
	tasks := s.repo.Load()
	s.logger.Debug("tasks loaded", "count", len(tasks))
	return tasks
}

// --- Task Operations ---

// Create validates and stores a new task, then arms its reminder.
func (s *Service) Create(description string, due time.Time) (models.Task, scheduler.State, error) {
	now := s.now()
	task, err := s.repo.Add(description, due, now)
	if err != nil {
		s.pdr.Record("task.create", createInputs(description, due), audit.OutcomeRejected, "", err.Error())
		return models.Task{}, scheduler.StateNone, err
	}

	state := s.scheduler.Arm(task, now)
	s.pdr.Record("task.create", createInputs(description, due), audit.OutcomeSuccess, task.ID, string(state))
	s.logger.Info("task created", "task_id", models.ShortID(task.ID), "due", models.FormatTimestamp(task.TimeStamp), "reminder", state)
	return task, state, nil
}

// Edit replaces a task's fields. An empty description or zero due time
// keeps the current value. The past-due rule is not applied to edits; the
// reminder is re-armed for the new due time.
func (s *Service) Edit(ref, description string, due time.Time) (models.Task, scheduler.State, error) {
	current, err := s.Resolve(ref)
	if err != nil {
		return models.Task{}, scheduler.StateNone, err
	}
	if description == "" {
		description = current.Description
	}
	if due.IsZero() {
		due = current.TimeStamp
	}

	task, err := s.repo.Update(current.ID, description, due)
	if err != nil {
		return models.Task{}, scheduler.StateNone, err
	}

	state := s.scheduler.State(task.ID)
	if !due.Equal(current.TimeStamp) || state == scheduler.StateArmed {
		state = s.scheduler.Rearm(task, s.now())
	}
	s.pdr.Record("task.edit", createInputs(description, due), audit.OutcomeSuccess, task.ID, string(state))
	s.logger.Info("task edited", "task_id", models.ShortID(task.ID), "reminder", state)
	return task, state, nil
}

// Delete removes a task, cancels its pending reminder and drops the
// reminder's record.
func (s *Service) Delete(ref string) (models.Task, error) {
	current, err := s.Resolve(ref)
	if err != nil {
		return models.Task{}, err
	}
	task, err := s.repo.Remove(current.ID)
	if err != nil {
		return models.Task{}, err
	}

	cancelled := s.scheduler.Cancel(task.ID)
	s.scheduler.Forget(task.ID)
	s.pdr.Record("task.delete", map[string]string{"task_id": task.ID}, audit.OutcomeSuccess, task.ID, "")
	s.logger.Info("task deleted", "task_id", models.ShortID(task.ID), "reminder_cancelled", cancelled)
	return task, nil
}

// List returns the tasks inside the period's window, in insertion order.
func (s *Service) List(p period.Period) []models.Task {
	return period.Filter(s.repo.All(), p, s.now())
}

// ReminderState reports the reminder state for a task.
func (s *Service) ReminderState(id string) scheduler.State {
	return s.scheduler.State(id)
}

// Resolve finds a task by full id, unique id prefix, or "#N" for the N-th
// task in insertion order.
func (s *Service) Resolve(ref string) (models.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Task{}, ErrEmptyRef
	}

	tasks := s.repo.All()
	if strings.HasPrefix(ref, "#") {
		n, err := strconv.Atoi(ref[1:])
		if err != nil || n < 1 || n > len(tasks) {
			return models.Task{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return tasks[n-1], nil
	}

	var match *models.Task
	for i := range tasks {
		if tasks[i].ID == ref {
			return tasks[i], nil
		}
		if len(ref) >= minPrefix && strings.HasPrefix(tasks[i].ID, ref) {
			if match != nil {
				return models.Task{}, fmt.Errorf("%w: %s", ErrAmbiguousRef, ref)
			}
			match = &tasks[i]
		}
	}
	if match == nil {
		return models.Task{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return *match, nil
}

func createInputs(description string, due time.Time) map[string]string {
	return map[string]string{
		"description": description,
		"due":         due.Format(time.RFC3339),
	}
}
