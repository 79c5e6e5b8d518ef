// Package models defines the core domain types for duebell.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task represents a user-created reminder with a due timestamp.
type Task struct {
	ID          string
	TimeStamp   time.Time
	Description string
	// Completed is carried through storage but no operation sets it.
	Completed bool
}

// taskWire is the persisted shape of a Task. Field names match the slot
// format written by earlier browser builds, so existing data loads as-is.
type taskWire struct {
	ID          string `json:"id,omitempty"`
	TimeStamp   string `json:"timeStamp"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Accepted timestamp layouts, most specific first. The datetime-local
// forms carry no zone and are read in time.Local.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a due moment. RFC 3339 strings keep their offset;
// zoneless forms are interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatTimestamp renders a due moment for display in its own location.
func FormatTimestamp(t time.Time) string {
	if t.Second() != 0 {
		return t.Format("2006-01-02 15:04:05")
	}
	return t.Format("2006-01-02 15:04")
}

// NewID returns a fresh task identifier.
func NewID() string {
	return uuid.New().String()
}

// ShortID returns the display prefix of an identifier.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// MarshalJSON implements json.Marshaler.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskWire{
		ID:          t.ID,
		TimeStamp:   t.TimeStamp.Format(time.RFC3339Nano),
		Description: t.Description,
		Completed:   t.Completed,
	})
}

// UnmarshalJSON implements json.Unmarshaler. A missing id is filled with a
// fresh one; a missing completed flag decodes as false.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := ParseTimestamp(w.TimeStamp, time.Local)
	if err != nil {
		return fmt.Errorf("task %q: %w", w.Description, err)
	}
	if w.ID == "" {
		w.ID = NewID()
	}
	*t = Task{
		ID:          w.ID,
		TimeStamp:   ts,
		Description: w.Description,
		Completed:   w.Completed,
	}
	return nil
}

// PDREntry represents a Process Decision Record for audit.
type PDREntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	TaskID     string    `json:"task_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
