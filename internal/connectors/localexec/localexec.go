// Package localexec provides a local command executor with an allowlist.
package localexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fentz26/duebell/internal/connectors"
)

// argRule checks the argument shape of an allowed command.
type argRule func(args []string) bool

// allowedCommands defines the strict allowlist: only desktop notification
// helpers, each with the argument shape duebell produces.
var allowedCommands = map[string]argRule{
	// notify-send [--app-name=...] <title> <body>
	"notify-send": func(args []string) bool {
		n := 0
		for _, a := range args {
			if strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "--app-name=") && !strings.HasPrefix(a, "--urgency=") {
				return false
			}
			if !strings.HasPrefix(a, "-") {
				n++
			}
		}
		return n == 2
	},
	// osascript -e 'display notification ...'
	"osascript": func(args []string) bool {
		return len(args) == 2 && args[0] == "-e" && strings.HasPrefix(args[1], "display notification ")
	},
}

// LocalExec implements the Connector interface for local command execution.
type LocalExec struct {
	workDir  string
	lookPath func(string) (string, error)
}

// New creates a new LocalExec connector.
func New(workDir string) *LocalExec {
	return &LocalExec{workDir: workDir, lookPath: exec.LookPath}
}

// Name returns the connector identifier.
func (l *LocalExec) Name() string {
	return "localexec"
}

// IsAllowed checks if a command and its arguments match the allowlist.
func (l *LocalExec) IsAllowed(cmd string, args []string) bool {
	rule, ok := allowedCommands[cmd]
	if !ok {
		return false
	}
	if len(args) == 0 {
		return false
	}
	return rule(args)
}

// Available reports whether an allowlisted command is on PATH.
func (l *LocalExec) Available(cmd string) bool {
	if _, ok := allowedCommands[cmd]; !ok {
		return false
	}
	_, err := l.lookPath(cmd)
	return err == nil
}

// Execute runs a command if it's in the allowlist.
func (l *LocalExec) Execute(ctx context.Context, cmd string, args []string) (*connectors.ExecResult, error) {
	if !l.IsAllowed(cmd, args) {
		return nil, fmt.Errorf("command not allowed: %s %s", cmd, strings.Join(args, " "))
	}

	execCmd := exec.CommandContext(ctx, cmd, args...)
	if l.workDir != "" {
		execCmd.Dir = l.workDir
	}

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()

	exitCode := 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		} else {
			return nil, fmt.Errorf("exec error: %w", err)
		}
	}

	return &connectors.ExecResult{
		Command:  cmd,
		Args:     args,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
