package main

import (
	"fmt"
	"os"

	"github.com/fentz26/duebell/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage duebell configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current settings",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var forceInit bool

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !forceInit {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}
	if err := config.SaveConfig(configPath, cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote config: %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	fmt.Printf("config:        %s\n", configPath)
	fmt.Printf("db_path:       %s\n", cfg.DBPath)
	fmt.Printf("log:           level=%s format=%s\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Printf("notifications: %v\n", cfg.Notifications)
	fmt.Printf("reminder:      %q\n", cfg.Reminders.Title)
	return nil
}
