// Package main provides the main entry point for the feedback portal admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"feedbackportal/cmd/adm/commands"
	"feedbackportal/internal/config"
	"feedbackportal/internal/database"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Disable OpenTelemetry export for the CLI to avoid connection errors
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableLogging = false

	_, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "feedback-adm")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	// Initialize database connection (no migrations for the admin tool)
	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database", err, map[string]interface{}{"db_url": cfg.Database.URL})
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn(ctx, "Warning: failed to close database connection", map[string]interface{}{"error": err.Error()})
		}
	}()

	settingsService := services.NewSettingsService(db, logger)
	notificationService := services.NewNotificationService(settingsService, &cfg.Email, cfg.Server.AppBaseURL, logger)

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Feedback Portal Administration Tool",
		Long: `Feedback Portal Administration Tool

A CLI tool for administering the feedback portal backend.
Provides commands for database statistics, cleanup and notification checks.`,

		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.DatabaseCommands(logger, db))
	rootCmd.AddCommand(commands.NotifyCommands(notificationService, logger))
	rootCmd.AddCommand(commands.ConfigCommands(cfg))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
