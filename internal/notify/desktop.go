// Package notify implements the reminder delivery capabilities: native
// desktop notifications and the terminal alert fallback.
package notify

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/fentz26/duebell/internal/connectors"
	"github.com/fentz26/duebell/internal/scheduler"
)

// Desktop delivers notifications through the platform helper binary.
type Desktop struct {
	conn    connectors.Connector
	goos    string
	enabled bool
	appName string

	mu   sync.Mutex
	perm scheduler.Permission
}

var _ scheduler.Notifier = (*Desktop)(nil)

// NewDesktop creates a desktop notifier for the running platform. A
// disabled notifier always reports denied permission.
func NewDesktop(conn connectors.Connector, enabled bool) *Desktop {
	return &Desktop{
		conn:    conn,
		goos:    runtime.GOOS,
		enabled: enabled,
		appName: "duebell",
		perm:    scheduler.PermissionUndetermined,
	}
}

// Permission returns the last known permission without probing.
func (d *Desktop) Permission() scheduler.Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.enabled {
		return scheduler.PermissionDenied
	}
	return d.perm
}

// RequestPermission probes for the platform helper. Permission is granted
// when it is installed.
func (d *Desktop) RequestPermission(ctx context.Context) (scheduler.Permission, error) {
	if err := ctx.Err(); err != nil {
		return scheduler.PermissionUndetermined, err
	}

	perm := scheduler.PermissionDenied
	if d.enabled {
		if bin := d.binary(); bin != "" && d.conn.Available(bin) {
			perm = scheduler.PermissionGranted
		}
	}

	d.mu.Lock()
	d.perm = perm
	d.mu.Unlock()
	return perm, nil
}

// Notify shows a desktop notification.
func (d *Desktop) Notify(ctx context.Context, title, body string) error {
	cmd, args, err := d.command(title, body)
	if err != nil {
		return err
	}
	result, err := d.conn.Execute(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("notify: %s exited %d: %s", cmd, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

func (d *Desktop) binary() string {
	switch d.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send"
	case "darwin":
		return "osascript"
	default:
		return ""
	}
}

func (d *Desktop) command(title, body string) (string, []string, error) {
	switch bin := d.binary(); bin {
	case "notify-send":
		return bin, []string{"--app-name=" + d.appName, title, body}, nil
	case "osascript":
		script := fmt.Sprintf("display notification %s with title %s", appleScriptString(body), appleScriptString(title))
		return bin, []string{"-e", script}, nil
	default:
		return "", nil, fmt.Errorf("desktop notifications unsupported on %s", d.goos)
	}
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
