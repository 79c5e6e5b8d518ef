package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fentz26/duebell/internal/connectors"
	"github.com/fentz26/duebell/internal/scheduler"
)

// mockConnector records executions.
type mockConnector struct {
	available map[string]bool
	exitCode  int
	execErr   error
	calls     [][]string
}

func (m *mockConnector) Name() string { return "mock" }

func (m *mockConnector) Execute(ctx context.Context, cmd string, args []string) (*connectors.ExecResult, error) {
	m.calls = append(m.calls, append([]string{cmd}, args...))
	if m.execErr != nil {
		return nil, m.execErr
	}
	return &connectors.ExecResult{Command: cmd, Args: args, ExitCode: m.exitCode, Stderr: "boom"}, nil
}

func (m *mockConnector) IsAllowed(cmd string, args []string) bool { return true }

func (m *mockConnector) Available(cmd string) bool { return m.available[cmd] }

func newLinuxDesktop(conn connectors.Connector, enabled bool) *Desktop {
	d := NewDesktop(conn, enabled)
	d.goos = "linux"
	return d
}

func TestDesktopPermission(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		enabled   bool
		available map[string]bool
		want      scheduler.Permission
	}{
		{"linux with notify-send", "linux", true, map[string]bool{"notify-send": true}, scheduler.PermissionGranted},
		{"linux without notify-send", "linux", true, map[string]bool{}, scheduler.PermissionDenied},
		{"darwin with osascript", "darwin", true, map[string]bool{"osascript": true}, scheduler.PermissionGranted},
		{"disabled", "linux", false, map[string]bool{"notify-send": true}, scheduler.PermissionDenied},
		{"unsupported platform", "windows", true, map[string]bool{"notify-send": true}, scheduler.PermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDesktop(&mockConnector{available: tt.available}, tt.enabled)
			d.goos = tt.goos

			if tt.enabled && d.Permission() != scheduler.PermissionUndetermined {
				t.Errorf("Expected undetermined before probing, got %s", d.Permission())
			}
			got, err := d.RequestPermission(context.Background())
			if err != nil {
				t.Fatalf("RequestPermission failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("RequestPermission = %s, want %s", got, tt.want)
			}
			if d.Permission() != tt.want {
				t.Errorf("Permission = %s, want %s", d.Permission(), tt.want)
			}
		})
	}
}

func TestDesktopNotify_Linux(t *testing.T) {
	conn := &mockConnector{}
	d := newLinuxDesktop(conn, true)

	if err := d.Notify(context.Background(), "Task Reminder", "Task: Pay rent is due now!"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	want := []string{"notify-send", "--app-name=duebell", "Task Reminder", "Task: Pay rent is due now!"}
	if len(conn.calls) != 1 || strings.Join(conn.calls[0], "|") != strings.Join(want, "|") {
		t.Errorf("Unexpected call: %v", conn.calls)
	}
}

func TestDesktopNotify_Darwin(t *testing.T) {
	conn := &mockConnector{}
	d := NewDesktop(conn, true)
	d.goos = "darwin"

	d.Notify(context.Background(), "Task Reminder", `Say "hi"`)
	if len(conn.calls) != 1 {
		t.Fatalf("Expected one call, got %d", len(conn.calls))
	}
	script := conn.calls[0][2]
	if script != `display notification "Say \"hi\"" with title "Task Reminder"` {
		t.Errorf("Unexpected script: %s", script)
	}
}

func TestDesktopNotify_Failures(t *testing.T) {
	d := newLinuxDesktop(&mockConnector{exitCode: 1}, true)
	if err := d.Notify(context.Background(), "t", "b"); err == nil {
		t.Error("Expected error for non-zero exit")
	}

	d = newLinuxDesktop(&mockConnector{execErr: errors.New("not allowed")}, true)
	if err := d.Notify(context.Background(), "t", "b"); err == nil {
		t.Error("Expected error for exec failure")
	}

	d = NewDesktop(&mockConnector{}, true)
	d.goos = "plan9"
	if err := d.Notify(context.Background(), "t", "b"); err == nil {
		t.Error("Expected error for unsupported platform")
	}
}

func TestTerminalAlert(t *testing.T) {
	var buf bytes.Buffer
	a := NewTerminalAlert(&buf)

	a.Alert("Task Reminder: Pay rent is due now!")

	out := buf.String()
	if !strings.HasPrefix(out, "\a") {
		t.Error("Expected terminal bell")
	}
	if !strings.Contains(out, "Pay rent is due now!") {
		t.Errorf("Expected message in output, got %q", out)
	}
}
