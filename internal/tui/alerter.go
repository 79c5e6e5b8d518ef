package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/duebell/internal/scheduler"
)

// Alerter delivers reminder alerts into a running program as banner
// messages. Alerts raised before a program is attached are queued.
type Alerter struct {
	mu      sync.Mutex
	program *tea.Program
	queued  []string
}

var _ scheduler.Alerter = (*Alerter)(nil)

// NewAlerter creates an unattached alerter.
func NewAlerter() *Alerter {
	return &Alerter{}
}

// Alert posts msg to the program.
func (a *Alerter) Alert(msg string) {
	a.mu.Lock()
	p := a.program
	if p == nil {
		a.queued = append(a.queued, msg)
	}
	a.mu.Unlock()

	if p != nil {
		p.Send(alertMsg{text: msg})
	}
}

// attach routes future alerts to p and returns the queued ones.
func (a *Alerter) attach(p *tea.Program) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.program = p
	queued := a.queued
	a.queued = nil
	return queued
}

func (a *Alerter) detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.program = nil
}

type alertMsg struct {
	text string
}
