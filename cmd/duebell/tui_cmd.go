package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fentz26/duebell/internal/config"
	"github.com/fentz26/duebell/internal/logging"
	"github.com/fentz26/duebell/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Console logs would draw over the alt screen.
	logPath := filepath.Join(config.Dir(), "tui.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	opts := cfg.LogOptions()
	opts.ReportTimestamp = true
	logger = logging.NewWithWriter(logFile, opts)

	alerter := tui.NewAlerter()
	sess, err := openSession(alerter)
	if err != nil {
		return err
	}
	defer sess.Close()

	// Settle permission before any reminder can be armed.
	sess.negotiate(cmd.Context())

	app := tui.New(sess.svc, alerter)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
