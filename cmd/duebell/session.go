package main

import (
	"context"
	"os"

	"github.com/fentz26/duebell/internal/audit"
	"github.com/fentz26/duebell/internal/connectors/localexec"
	"github.com/fentz26/duebell/internal/notify"
	"github.com/fentz26/duebell/internal/repository"
	"github.com/fentz26/duebell/internal/scheduler"
	"github.com/fentz26/duebell/internal/store"
	"github.com/fentz26/duebell/internal/tasklist"
)

// session owns everything a command needs for one run.
type session struct {
	store *store.Store
	sched *scheduler.Scheduler
	svc   *tasklist.Service
}

// openSession opens the store and wires the service. Reminder alerts go
// to alerter; nil means the terminal.
func openSession(alerter scheduler.Alerter) (*session, error) {
	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if alerter == nil {
		alerter = notify.NewTerminalAlert(os.Stderr)
	}
	workDir, _ := os.Getwd()
	desktop := notify.NewDesktop(localexec.New(workDir), cfg.Notifications)
	sched := scheduler.New(desktop, alerter, cfg.Reminders, logger)

	repo := repository.New(s, logger)
	svc := tasklist.NewService(repo, sched, audit.NewPDRWriter(s), logger)
	svc.Load()

	return &session{store: s, sched: sched, svc: svc}, nil
}

// negotiate settles notification permission before reminders can fire.
func (s *session) negotiate(ctx context.Context) {
	s.sched.Negotiate(ctx)
}

func (s *session) Close() {
	s.sched.Stop()
	s.store.Close()
}
