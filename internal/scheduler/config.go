// Package scheduler arms one-shot due reminders for tasks.
package scheduler

import "fmt"

// Config defines the reminder texts.
type Config struct {
	// Title is the notification title.
	Title string `yaml:"title"`
	// NotifyFormat builds the notification body from the task description.
	NotifyFormat string `yaml:"notify_format"`
	// AlertFormat builds the fallback alert text from the task description.
	AlertFormat string `yaml:"alert_format"`
	// DeniedMessage is shown once when notification permission is refused.
	DeniedMessage string `yaml:"denied_message"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		Title:         "Task Reminder",
		NotifyFormat:  "Task: %s is due now!",
		AlertFormat:   "Task Reminder: %s is due now!",
		DeniedMessage: "Notifications disabled. Enable them for task reminders.",
	}
}

// Validate checks that the formats take exactly one description.
func (c *Config) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("reminders.title must not be empty")
	}
	for name, f := range map[string]string{"notify_format": c.NotifyFormat, "alert_format": c.AlertFormat} {
		if countVerbs(f) != 1 {
			return fmt.Errorf("reminders.%s must contain exactly one %%s", name)
		}
	}
	return nil
}

func (c *Config) notifyBody(description string) string {
	return fmt.Sprintf(c.NotifyFormat, description)
}

func (c *Config) alertText(description string) string {
	return fmt.Sprintf(c.AlertFormat, description)
}

func countVerbs(f string) int {
	n := 0
	for i := 0; i < len(f)-1; i++ {
		if f[i] != '%' {
			continue
		}
		if f[i+1] == '%' {
			i++
			continue
		}
		if f[i+1] != 's' {
			return -1
		}
		n++
	}
	return n
}
