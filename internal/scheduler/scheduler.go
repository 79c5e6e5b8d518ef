package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fentz26/duebell/internal/models"
)

// Permission is the state of the notification capability.
type Permission string

const (
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
	PermissionUndetermined Permission = "undetermined"
)

// State is the lifecycle position of one reminder.
type State string

const (
	StateNone      State = ""
	StateArmed     State = "armed"
	StateFired     State = "fired"
	StateSkipped   State = "skipped"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateFired || s == StateSkipped || s == StateCancelled
}

// ErrNoReminder indicates no reminder was ever armed for a task.
var ErrNoReminder = errors.New("no reminder for task")

// Notifier is the system notification capability.
type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(ctx context.Context, title, body string) error
}

// Alerter shows a blocking, user-facing alert. It is the fallback when
// notifications are not permitted.
type Alerter interface {
	Alert(msg string)
}

// Timer is a pending deferred call.
type Timer interface {
	Stop() bool
}

type reminder struct {
	task  models.Task
	state State
	timer Timer
	done  chan struct{}
}

func (r *reminder) finish(state State) {
	r.state = state
	close(r.done)
}

// Scheduler keeps at most one reminder per task id. Settled reminders stay
// readable through State until the task is re-armed or forgotten, so the
// map holds at most one entry per task still known to the caller.
type Scheduler struct {
	notifier Notifier
	alerter  Alerter
	config   *Config
	logger   *log.Logger

	mu         sync.Mutex
	granted    bool
	negotiated bool
	reminders  map[string]*reminder

	// afterFunc is swapped in tests to fire reminders by hand.
	afterFunc func(d time.Duration, f func()) Timer
}

// New creates a scheduler. A nil notifier means every reminder uses the alerter.
func New(n Notifier, a Alerter, cfg *Config, logger *log.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Scheduler{
		notifier:  n,
		alerter:   a,
		config:    cfg,
		logger:    logger,
		reminders: make(map[string]*reminder),
		afterFunc: func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
	}
}

// Negotiate settles notification permission once, requesting it if the
// user has not decided yet. The result is what fired reminders consult.
func (s *Scheduler) Negotiate(ctx context.Context) (Permission, error) {
	perm := PermissionDenied
	var err error
	if s.notifier != nil {
		perm = s.notifier.Permission()
		if perm != PermissionGranted {
			perm, err = s.notifier.RequestPermission(ctx)
		}
	}

	s.mu.Lock()
	s.granted = err == nil && perm == PermissionGranted
	s.negotiated = true
	granted := s.granted
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("notification permission request failed", "err", err)
	}
	if !granted {
		s.logger.Warn("notifications not permitted, falling back to alerts", "permission", perm)
		s.alert(s.config.DeniedMessage)
	} else {
		s.logger.Debug("notifications permitted")
	}
	return perm, err
}

// Granted reports the negotiated permission.
func (s *Scheduler) Granted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted
}

// Arm schedules a one-shot reminder at the task's due time. A task due at
// or before now is only logged as overdue. Arming a task that already has
// a pending reminder replaces it.
func (s *Scheduler) Arm(task models.Task, now time.Time) State {
	delay := task.TimeStamp.Sub(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.negotiated {
		s.logger.Debug("arming before permission negotiation, reminders will use alerts")
	}
	s.cancelLocked(task.ID)

	r := &reminder{task: task, done: make(chan struct{})}
	s.reminders[task.ID] = r

	if delay <= 0 {
		r.finish(StateSkipped)
		s.logger.Info("task already overdue", "task_id", models.ShortID(task.ID), "description", task.Description)
		return StateSkipped
	}

	r.state = StateArmed
	r.timer = s.afterFunc(delay, func() { s.fire(task.ID, r) })
	s.logger.Debug("reminder armed", "task_id", models.ShortID(task.ID), "in", delay.Round(time.Second))
	return StateArmed
}

// Rearm replaces any reminder for the task with one for its current due time.
func (s *Scheduler) Rearm(task models.Task, now time.Time) State {
	return s.Arm(task, now)
}

// Cancel stops a pending reminder. It reports whether one was pending.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(id)
}

func (s *Scheduler) cancelLocked(id string) bool {
	r, ok := s.reminders[id]
	if !ok || r.state != StateArmed {
		return false
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.finish(StateCancelled)
	s.logger.Debug("reminder cancelled", "task_id", models.ShortID(id))
	return true
}

// Forget drops a settled reminder. A pending reminder is kept; cancel it
// first. It reports whether an entry was removed.
func (s *Scheduler) Forget(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok || r.state == StateArmed {
		return false
	}
	delete(s.reminders, id)
	return true
}

// State returns the state of the latest reminder for a task.
func (s *Scheduler) State(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reminders[id]; ok {
		return r.state
	}
	return StateNone
}

// Pending returns the number of armed reminders.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reminders {
		if r.state == StateArmed {
			n++
		}
	}
	return n
}

// Wait blocks until the task's latest reminder reaches a terminal state.
func (s *Scheduler) Wait(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	r, ok := s.reminders[id]
	s.mu.Unlock()
	if !ok {
		return StateNone, ErrNoReminder
	}

	select {
	case <-r.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return r.state, nil
	case <-ctx.Done():
		return s.State(id), ctx.Err()
	}
}

// Stop cancels every pending reminder.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.reminders {
		s.cancelLocked(id)
	}
}

func (s *Scheduler) fire(id string, r *reminder) {
	s.mu.Lock()
	if s.reminders[id] != r || r.state != StateArmed {
		s.mu.Unlock()
		return
	}
	// Claimed before delivery so a racing Cancel or Rearm sees it as fired.
	r.state = StateFired
	granted := s.granted
	task := r.task
	s.mu.Unlock()

	s.deliver(task, granted)
	close(r.done)
}

func (s *Scheduler) deliver(task models.Task, granted bool) {
	s.logger.Info("task due", "task_id", models.ShortID(task.ID), "description", task.Description)
	if granted && s.notifier != nil {
		err := s.notifier.Notify(context.Background(), s.config.Title, s.config.notifyBody(task.Description))
		if err == nil {
			return
		}
		s.logger.Warn("notification failed, falling back to alert", "err", err)
	}
	s.alert(s.config.alertText(task.Description))
}

func (s *Scheduler) alert(msg string) {
	if s.alerter != nil {
		s.alerter.Alert(msg)
	}
}
