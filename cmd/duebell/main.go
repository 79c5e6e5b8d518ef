package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/fentz26/duebell/internal/config"
	"github.com/fentz26/duebell/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "duebell",
	Short: "duebell - task list with due-time reminders",
	Long: `duebell keeps a list of tasks with due times, filters them by today, this
week or this month, and rings a one-shot reminder when a task falls due while
a session (the TUI, or add --wait) is open.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *log.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json, logfmt")

	// Add subcommands
	rootCmd.AddCommand(addCmd, listCmd, editCmd, rmCmd, historyCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
}

// loadSettings resolves config from file, env and flags, in that order.
func loadSettings(cmd *cobra.Command, args []string) error {
	c, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.DBPath = dbPath
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	logger = logging.New(c.LogOptions())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
