// Package tui provides the interactive terminal UI for duebell.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/duebell/internal/models"
	"github.com/fentz26/duebell/internal/period"
	"github.com/fentz26/duebell/internal/tasklist"
)

// DueLayout is the layout typed into the due fields.
const DueLayout = "2006-01-02 15:04"

type focus int

const (
	focusList focus = iota
	focusDesc
	focusDue
)

// App is the main TUI application model.
type App struct {
	svc     *tasklist.Service
	alerter *Alerter

	period   period.Period
	tasks    []models.Task // filtered, insertion order
	selected int           // index into the newest-first rows

	desc  textinput.Model
	due   textinput.Model
	focus focus

	editing  bool
	editID   string
	editDesc textinput.Model
	editDue  textinput.Model

	message string
	banner  string
	width   int
	height  int
}

// New creates a new TUI application over svc. Reminder alerts routed
// through alerter show up as a banner.
func New(svc *tasklist.Service, alerter *Alerter) *App {
	a := &App{
		svc:      svc,
		alerter:  alerter,
		period:   period.All,
		desc:     newInput("What needs doing?", 256),
		due:      newInput(DueLayout, len(DueLayout)),
		editDesc: newInput("Description", 256),
		editDue:  newInput(DueLayout, len(DueLayout)),
		width:    80,
	}
	a.refresh()
	return a
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	return ti
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	if a.alerter != nil {
		if queued := a.alerter.attach(p); len(queued) > 0 {
			a.banner = queued[len(queued)-1]
		}
		defer a.alerter.detach()
	}
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch {
		case a.editing:
			return a, a.updateEdit(msg)
		case a.focus != focusList:
			return a, a.updateForm(msg)
		default:
			return a, a.updateList(msg)
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case alertMsg:
		a.banner = msg.text
	}
	return a, nil
}

func (a *App) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "1", "2", "3", "4":
		a.period = period.Periods[msg.String()[0]-'1']
		a.selected = 0
		a.refresh()
	case "up", "k":
		if a.selected > 0 {
			a.selected--
		}
	case "down", "j":
		if a.selected < len(a.tasks)-1 {
			a.selected++
		}
	case "n", "tab":
		a.setFocus(focusDesc)
	case "e":
		a.beginEdit()
	case "d":
		a.deleteSelected()
	case "esc":
		a.banner = ""
		a.message = ""
	}
	return nil
}

func (a *App) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.setFocus(focusList)
		return nil
	case "tab", "shift+tab":
		if a.focus == focusDesc {
			a.setFocus(focusDue)
		} else {
			a.setFocus(focusDesc)
		}
		return nil
	case "enter":
		a.submit()
		return nil
	}

	var cmd tea.Cmd
	if a.focus == focusDesc {
		a.desc, cmd = a.desc.Update(msg)
	} else {
		a.due, cmd = a.due.Update(msg)
	}
	return cmd
}

func (a *App) updateEdit(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.endEdit()
		return nil
	case "tab", "shift+tab":
		if a.editDesc.Focused() {
			a.editDesc.Blur()
			a.editDue.Focus()
		} else {
			a.editDue.Blur()
			a.editDesc.Focus()
		}
		return nil
	case "enter":
		a.saveEdit()
		return nil
	}

	var cmd tea.Cmd
	if a.editDesc.Focused() {
		a.editDesc, cmd = a.editDesc.Update(msg)
	} else {
		a.editDue, cmd = a.editDue.Update(msg)
	}
	return cmd
}

func (a *App) setFocus(f focus) {
	a.focus = f
	a.desc.Blur()
	a.due.Blur()
	switch f {
	case focusDesc:
		a.desc.Focus()
	case focusDue:
		a.due.Focus()
	}
}

func (a *App) submit() {
	due, err := parseDue(a.due.Value())
	if err != nil {
		a.fail(err)
		return
	}
	task, state, err := a.svc.Create(strings.TrimSpace(a.desc.Value()), due)
	if err != nil {
		a.fail(err)
		return
	}
	a.desc.Reset()
	a.due.Reset()
	a.setFocus(focusList)
	a.selected = 0
	a.refresh()
	a.message = fmt.Sprintf("✓ Added %s (reminder %s)", models.ShortID(task.ID), state)
}

func (a *App) beginEdit() {
	task, ok := a.selectedTask()
	if !ok {
		return
	}
	a.editing = true
	a.editID = task.ID
	a.editDesc.SetValue(task.Description)
	a.editDue.SetValue(task.TimeStamp.Local().Format(DueLayout))
	a.editDue.Blur()
	a.editDesc.Focus()
}

func (a *App) endEdit() {
	a.editing = false
	a.editID = ""
	a.editDesc.Blur()
	a.editDue.Blur()
}

func (a *App) saveEdit() {
	due, err := parseDue(a.editDue.Value())
	if err != nil {
		a.fail(err)
		return
	}
	task, state, err := a.svc.Edit(a.editID, a.editDesc.Value(), due)
	if err != nil {
		a.fail(err)
		return
	}
	a.endEdit()
	a.refresh()
	a.message = fmt.Sprintf("✓ Saved %s (reminder %s)", models.ShortID(task.ID), state)
}

func (a *App) deleteSelected() {
	task, ok := a.selectedTask()
	if !ok {
		return
	}
	if _, err := a.svc.Delete(task.ID); err != nil {
		a.fail(err)
		return
	}
	a.refresh()
	a.message = fmt.Sprintf("✓ Deleted %s", models.ShortID(task.ID))
}

func (a *App) fail(err error) {
	switch {
	case errors.Is(err, tasklist.ErrPastDue):
		a.message = "Error: please select a future date and time"
	default:
		a.message = "Error: " + err.Error()
	}
}

// refresh re-reads the filtered view and clamps the selection.
func (a *App) refresh() {
	a.tasks = a.svc.List(a.period)
	if a.selected >= len(a.tasks) {
		a.selected = max(0, len(a.tasks)-1)
	}
}

// rows returns the visible tasks newest-first.
func (a *App) rows() []models.Task {
	rows := make([]models.Task, len(a.tasks))
	for i, t := range a.tasks {
		rows[len(a.tasks)-1-i] = t
	}
	return rows
}

func (a *App) selectedTask() (models.Task, bool) {
	rows := a.rows()
	if a.selected < 0 || a.selected >= len(rows) {
		return models.Task{}, false
	}
	return rows[a.selected], true
}

func parseDue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("due time is required")
	}
	t, err := models.ParseTimestamp(s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("due time must look like %s", DueLayout)
	}
	return t, nil
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🔔 duebell") + "  " + periodStyle.Render(a.periodLabel()) + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 20)) + "\n")

	if a.banner != "" {
		b.WriteString(bannerStyle.Render("⏰ "+a.banner) + "\n")
	}

	b.WriteString(a.renderTaskList())

	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	}
	b.WriteString("\n")

	b.WriteString(a.renderForm() + "\n")

	var status string
	switch {
	case a.editing:
		status = " Tab:switch field | Enter:save | Esc:cancel"
	case a.focus != focusList:
		status = " Tab:switch field | Enter:add | Esc:back"
	default:
		status = fmt.Sprintf(" Tasks: %d | 1:today 2:week 3:month 4:all | ↑↓:nav | n:new | e:edit | d:delete | q:quit", len(a.tasks))
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 20)).Render(status))

	return b.String()
}

func (a *App) periodLabel() string {
	label := "[" + strings.ToUpper(string(a.period)) + "]"
	start, end, ok := period.Window(a.period, a.svc.Now())
	if !ok {
		return label
	}
	return fmt.Sprintf("%s %s → %s", label, start.Format("Mon Jan 2"), end.Add(-time.Nanosecond).Format("Mon Jan 2"))
}

func (a *App) renderTaskList() string {
	rows := a.rows()
	if len(rows) == 0 {
		return helpStyle.Render("\n  No tasks in this period. Press n to add one.\n")
	}

	now := a.svc.Now()
	var b strings.Builder
	for i, task := range rows {
		if a.editing && task.ID == a.editID {
			b.WriteString(a.renderEditRow() + "\n")
			continue
		}

		due := task.TimeStamp.Local().Format("Mon Jan 2 15:04")
		if task.TimeStamp.Before(now) {
			due = overdueStyle.Render(due)
		}
		line := fmt.Sprintf("%s  %s  %s", models.ShortID(task.ID), due, task.Description)

		if i == a.selected {
			b.WriteString(selectedStyle.Render("▸ "+line) + "\n")
		} else {
			b.WriteString(taskItemStyle.Render("  "+line) + "\n")
		}
	}
	return b.String()
}

func (a *App) renderEditRow() string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		focusedBoxStyle.Render(a.editDesc.View()),
		" ",
		focusedBoxStyle.Render(a.editDue.View()),
	)
}

func (a *App) renderForm() string {
	descBox, dueBox := inputBoxStyle, inputBoxStyle
	switch a.focus {
	case focusDesc:
		descBox = focusedBoxStyle
	case focusDue:
		dueBox = focusedBoxStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		descBox.Render(a.desc.View()),
		" ",
		dueBox.Render(a.due.View()),
	)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
