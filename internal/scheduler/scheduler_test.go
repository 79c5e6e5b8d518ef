package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/duebell/internal/logging"
	"github.com/fentz26/duebell/internal/models"
)

// mockNotifier records notifications.
type mockNotifier struct {
	mu         sync.Mutex
	perm       Permission
	requestTo  Permission
	requestErr error
	notifyErr  error
	requested  int
	sent       []string
}

func (m *mockNotifier) Permission() Permission { return m.perm }

func (m *mockNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	m.requested++
	m.perm = m.requestTo
	return m.requestTo, m.requestErr
}

func (m *mockNotifier) Notify(ctx context.Context, title, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.sent = append(m.sent, title+"|"+body)
	return nil
}

func (m *mockNotifier) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

// mockAlerter records alerts.
type mockAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (m *mockAlerter) Alert(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, msg)
}

func (m *mockAlerter) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.alerts...)
}

// manualTimer is a deferred call fired by the test.
type manualTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type manualClock struct {
	timers []*manualTimer
}

func (c *manualClock) afterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func newManualScheduler(n Notifier, a Alerter) (*Scheduler, *manualClock) {
	sch := New(n, a, nil, logging.Discard())
	clock := &manualClock{}
	sch.afterFunc = clock.afterFunc
	return sch, clock
}

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newTask(id string, due time.Time) models.Task {
	return models.Task{ID: id, TimeStamp: due, Description: "Pay rent"}
}

func TestArm_Overdue(t *testing.T) {
	sch, clock := newManualScheduler(nil, &mockAlerter{})

	state := sch.Arm(newTask("t1", now.Add(-5*time.Minute)), now)
	if state != StateSkipped {
		t.Errorf("Expected skipped, got %s", state)
	}
	if len(clock.timers) != 0 {
		t.Errorf("Expected no deferred action, got %d", len(clock.timers))
	}
	if sch.Pending() != 0 {
		t.Errorf("Expected no pending reminders, got %d", sch.Pending())
	}
}

func TestArm_DueExactlyNowIsSkipped(t *testing.T) {
	sch, clock := newManualScheduler(nil, nil)
	if state := sch.Arm(newTask("t1", now), now); state != StateSkipped {
		t.Errorf("Expected skipped, got %s", state)
	}
	if len(clock.timers) != 0 {
		t.Error("Expected no deferred action")
	}
}

func TestArm_FiresNotificationWhenGranted(t *testing.T) {
	n := &mockNotifier{perm: PermissionGranted}
	a := &mockAlerter{}
	sch, clock := newManualScheduler(n, a)

	if _, err := sch.Negotiate(context.Background()); err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}
	if n.requested != 0 {
		t.Error("Expected no request when already granted")
	}

	state := sch.Arm(newTask("t1", now.Add(10*time.Minute)), now)
	if state != StateArmed {
		t.Fatalf("Expected armed, got %s", state)
	}
	if len(clock.timers) != 1 || clock.timers[0].delay != 10*time.Minute {
		t.Fatalf("Expected one timer of 10m, got %+v", clock.timers)
	}

	clock.timers[0].f()

	if got := n.messages(); len(got) != 1 || got[0] != "Task Reminder|Task: Pay rent is due now!" {
		t.Errorf("Unexpected notifications: %v", got)
	}
	if got := a.messages(); len(got) != 0 {
		t.Errorf("Expected no alerts, got %v", got)
	}
	if sch.State("t1") != StateFired {
		t.Errorf("Expected fired, got %s", sch.State("t1"))
	}

	// A second firing is a no-op.
	clock.timers[0].f()
	if len(n.messages()) != 1 {
		t.Error("Expected reminder to fire once")
	}
}

func TestArm_FallsBackToAlertWhenDenied(t *testing.T) {
	n := &mockNotifier{perm: PermissionUndetermined, requestTo: PermissionDenied}
	a := &mockAlerter{}
	sch, clock := newManualScheduler(n, a)

	perm, _ := sch.Negotiate(context.Background())
	if perm != PermissionDenied || n.requested != 1 {
		t.Fatalf("Expected one denied request, got %s after %d", perm, n.requested)
	}
	if sch.Granted() {
		t.Error("Expected degraded mode")
	}
	alerts := a.messages()
	if len(alerts) != 1 || alerts[0] != DefaultConfig().DeniedMessage {
		t.Errorf("Expected denied notice, got %v", alerts)
	}

	sch.Arm(newTask("t1", now.Add(time.Minute)), now)
	clock.timers[0].f()

	alerts = a.messages()
	if len(alerts) != 2 || alerts[1] != "Task Reminder: Pay rent is due now!" {
		t.Errorf("Unexpected alerts: %v", alerts)
	}
	if len(n.messages()) != 0 {
		t.Error("Expected no notification in degraded mode")
	}
}

func TestFire_UsesNegotiatedFlag(t *testing.T) {
	// Permission granted at negotiation but revoked later: fire still notifies.
	n := &mockNotifier{perm: PermissionGranted}
	sch, clock := newManualScheduler(n, &mockAlerter{})
	sch.Negotiate(context.Background())
	sch.Arm(newTask("t1", now.Add(time.Minute)), now)

	n.perm = PermissionDenied
	clock.timers[0].f()

	if len(n.messages()) != 1 {
		t.Error("Expected notification based on negotiated permission")
	}
}

func TestFire_NotifyErrorFallsBackToAlert(t *testing.T) {
	n := &mockNotifier{perm: PermissionGranted, notifyErr: errors.New("dbus down")}
	a := &mockAlerter{}
	sch, clock := newManualScheduler(n, a)
	sch.Negotiate(context.Background())

	sch.Arm(newTask("t1", now.Add(time.Minute)), now)
	clock.timers[0].f()

	if got := a.messages(); len(got) != 1 {
		t.Errorf("Expected alert fallback, got %v", got)
	}
}

func TestCancelAndRearm(t *testing.T) {
	n := &mockNotifier{perm: PermissionGranted}
	sch, clock := newManualScheduler(n, &mockAlerter{})
	sch.Negotiate(context.Background())

	task := newTask("t1", now.Add(time.Hour))
	sch.Arm(task, now)

	task.TimeStamp = now.Add(2 * time.Hour)
	if state := sch.Rearm(task, now); state != StateArmed {
		t.Fatalf("Expected armed, got %s", state)
	}
	if !clock.timers[0].stopped {
		t.Error("Expected first timer to be stopped")
	}
	if sch.Pending() != 1 {
		t.Errorf("Expected one pending reminder, got %d", sch.Pending())
	}

	// The stale callback must not deliver.
	clock.timers[0].f()
	if len(n.messages()) != 0 {
		t.Error("Expected stale reminder to be ignored")
	}

	if !sch.Cancel("t1") {
		t.Error("Expected Cancel to report a pending reminder")
	}
	if sch.State("t1") != StateCancelled {
		t.Errorf("Expected cancelled, got %s", sch.State("t1"))
	}
	clock.timers[1].f()
	if len(n.messages()) != 0 {
		t.Error("Expected cancelled reminder not to deliver")
	}
	if sch.Cancel("t1") {
		t.Error("Expected second Cancel to report nothing pending")
	}
}

// cancellingNotifier cancels the reminder it is delivering.
type cancellingNotifier struct {
	mockNotifier
	sch       *Scheduler
	cancelled bool
	state     State
}

func (c *cancellingNotifier) Notify(ctx context.Context, title, body string) error {
	c.cancelled = c.sch.Cancel("t1")
	c.state = c.sch.State("t1")
	return c.mockNotifier.Notify(ctx, title, body)
}

func TestFire_CancelDuringDelivery(t *testing.T) {
	n := &cancellingNotifier{mockNotifier: mockNotifier{perm: PermissionGranted}}
	sch, clock := newManualScheduler(n, &mockAlerter{})
	n.sch = sch
	sch.Negotiate(context.Background())
	sch.Arm(newTask("t1", now.Add(time.Minute)), now)

	clock.timers[0].f()

	if n.cancelled {
		t.Error("Expected Cancel to find nothing pending while delivering")
	}
	if n.state != StateFired {
		t.Errorf("Expected fired during delivery, got %s", n.state)
	}
	if len(n.messages()) != 1 {
		t.Errorf("Expected one notification, got %v", n.messages())
	}
	if state, err := sch.Wait(context.Background(), "t1"); err != nil || state != StateFired {
		t.Errorf("Expected Wait to report fired, got %s, %v", state, err)
	}
}

func TestForget(t *testing.T) {
	sch, clock := newManualScheduler(nil, &mockAlerter{})
	sch.Arm(newTask("armed", now.Add(time.Hour)), now)
	sch.Arm(newTask("fired", now.Add(time.Minute)), now)
	sch.Arm(newTask("skipped", now.Add(-time.Minute)), now)
	clock.timers[1].f()

	if sch.Forget("armed") {
		t.Error("Expected pending reminder to be kept")
	}
	if sch.State("armed") != StateArmed {
		t.Errorf("Expected armed, got %s", sch.State("armed"))
	}
	for _, id := range []string{"fired", "skipped"} {
		if !sch.Forget(id) {
			t.Errorf("Expected %s to be forgotten", id)
		}
		if sch.State(id) != StateNone {
			t.Errorf("Expected no record for %s, got %s", id, sch.State(id))
		}
	}
	if sch.Forget("missing") {
		t.Error("Expected nothing to forget for an unknown id")
	}

	sch.Cancel("armed")
	if !sch.Forget("armed") {
		t.Error("Expected cancelled reminder to be forgotten")
	}
}

func TestStop(t *testing.T) {
	sch, clock := newManualScheduler(nil, nil)
	sch.Arm(newTask("a", now.Add(time.Hour)), now)
	sch.Arm(newTask("b", now.Add(2*time.Hour)), now)

	sch.Stop()

	if sch.Pending() != 0 {
		t.Errorf("Expected no pending reminders, got %d", sch.Pending())
	}
	for i, tm := range clock.timers {
		if !tm.stopped {
			t.Errorf("Timer %d not stopped", i)
		}
	}
}

func TestWait_RealTimer(t *testing.T) {
	a := &mockAlerter{}
	sch := New(nil, a, nil, logging.Discard())

	start := time.Now()
	sch.Arm(newTask("t1", start.Add(30*time.Millisecond)), start)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := sch.Wait(ctx, "t1")
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if state != StateFired {
		t.Errorf("Expected fired, got %s", state)
	}
	if len(a.messages()) != 1 {
		t.Errorf("Expected one alert, got %v", a.messages())
	}
}

func TestWait_Unknown(t *testing.T) {
	sch := New(nil, nil, nil, logging.Discard())
	if _, err := sch.Wait(context.Background(), "missing"); !errors.Is(err, ErrNoReminder) {
		t.Errorf("Expected ErrNoReminder, got %v", err)
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	sch, _ := newManualScheduler(nil, nil)
	sch.Arm(newTask("t1", now.Add(time.Hour)), now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := sch.Wait(ctx, "t1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if state != StateArmed {
		t.Errorf("Expected still armed, got %s", state)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty title", Config{NotifyFormat: "%s", AlertFormat: "%s"}},
		{"no verb", Config{Title: "t", NotifyFormat: "due", AlertFormat: "%s"}},
		{"two verbs", Config{Title: "t", NotifyFormat: "%s %s", AlertFormat: "%s"}},
		{"wrong verb", Config{Title: "t", NotifyFormat: "%d", AlertFormat: "%s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	ok := Config{Title: "t", NotifyFormat: "100%% sure: %s", AlertFormat: "%s"}
	if err := ok.Validate(); err != nil {
		t.Errorf("Expected escaped percent to be accepted, got %v", err)
	}
}
