// Package period filters tasks by named calendar windows.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fentz26/duebell/internal/models"
)

// Period is a named time-window filter tag.
type Period string

const (
	Today Period = "today"
	Week  Period = "week"
	Month Period = "month"
	All   Period = "all"
)

// Periods lists the tags in display order.
var Periods = []Period{Today, Week, Month, All}

// ErrUnknownPeriod indicates an unrecognized period tag.
var ErrUnknownPeriod = errors.New("unknown period")

// Parse converts a tag into a Period. The empty string means All.
func Parse(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Today, Week, Month, All:
		return p, nil
	case "":
		return All, nil
	default:
		return "", fmt.Errorf("%w %q (want today, week, month or all)", ErrUnknownPeriod, s)
	}
}

// Window returns the half-open range [start, end) a period covers around
// now, computed in now's location. ok is false for All and unknown tags.
func Window(p Period, now time.Time) (start, end time.Time, ok bool) {
	y, m, d := now.Date()
	loc := now.Location()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch p {
	case Today:
		return startOfDay, time.Date(y, m, d+1, 0, 0, 0, 0, loc), true
	case Week:
		// Weeks start on Sunday.
		sd := d - int(startOfDay.Weekday())
		return time.Date(y, m, sd, 0, 0, 0, 0, loc), time.Date(y, m, sd+7, 0, 0, 0, 0, loc), true
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), time.Date(y, m+1, 1, 0, 0, 0, 0, loc), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Filter returns the tasks due inside the period's window, preserving
// input order. All and unknown tags return every task. The input slice is
// never modified.
func Filter(tasks []models.Task, p Period, now time.Time) []models.Task {
	start, end, ok := Window(p, now)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !ok || (!t.TimeStamp.Before(start) && t.TimeStamp.Before(end)) {
			out = append(out, t)
		}
	}
	return out
}
