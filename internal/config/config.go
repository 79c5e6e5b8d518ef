// Package config loads duebell settings from ~/.duebell/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fentz26/duebell/internal/logging"
	"github.com/fentz26/duebell/internal/scheduler"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file.
const (
	EnvDB        = "DUEBELL_DB"
	EnvLogLevel  = "DUEBELL_LOG_LEVEL"
	EnvLogFormat = "DUEBELL_LOG_FORMAT"
)

// Config holds duebell configuration.
type Config struct {
	// DBPath is the SQLite database holding the task slot.
	DBPath string `yaml:"db_path"`
	// Log configures console logging.
	Log LogConfig `yaml:"log"`
	// Notifications toggles native desktop notifications. When off, reminders
	// always use the terminal alert.
	Notifications bool `yaml:"notifications"`
	// Reminders holds the reminder texts.
	Reminders *scheduler.Config `yaml:"reminders"`
}

// LogConfig configures the console logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Timestamps bool   `yaml:"timestamps"`
}

// Dir returns ~/.duebell, falling back to the working directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".duebell"
	}
	return filepath.Join(home, ".duebell")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		DBPath: filepath.Join(Dir(), "duebell.db"),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Notifications: true,
		Reminders:     scheduler.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a YAML file. A missing file yields
// the defaults. Environment overrides are applied on top.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.applyEnv()
	if cfg.Reminders == nil {
		cfg.Reminders = scheduler.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves configuration to a YAML file, creating parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("invalid log level %q, must be: debug, info, warn, error, or fatal", c.Log.Level)
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("invalid log format %q, must be: text, json, or logfmt", c.Log.Format)
	}
	if c.Reminders != nil {
		if err := c.Reminders.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LogOptions converts the log section into logger options.
func (c *Config) LogOptions() logging.Options {
	opts := logging.DefaultOptions()
	opts.Level = c.Log.Level
	opts.Format = c.Log.Format
	opts.ReportTimestamp = c.Log.Timestamps
	return opts
}
