package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/duebell/internal/scheduler"
)

var alertStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#F9FAFB")).
	Background(lipgloss.Color("#EF4444")).
	Padding(0, 1)

// TerminalAlert rings the terminal bell and prints the alert on w.
type TerminalAlert struct {
	mu sync.Mutex
	w  io.Writer
}

var _ scheduler.Alerter = (*TerminalAlert)(nil)

// NewTerminalAlert creates an alerter writing to w.
func NewTerminalAlert(w io.Writer) *TerminalAlert {
	return &TerminalAlert{w: w}
}

// Alert writes msg. Writes are serialized so concurrent reminders do not
// interleave.
func (t *TerminalAlert) Alert(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "\a%s\n", alertStyle.Render(msg))
}
