// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"
	"fmt"

	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(logger *observability.Logger, db *sql.DB) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the feedback portal.

Available commands:
  stats     - Show feedback and moderation statistics
  cleanup   - Remove old rejected feedback`,
	}

	dbCmd.AddCommand(statsCmd(logger, db))
	dbCmd.AddCommand(cleanupCmd(logger, db))

	return dbCmd
}

func statsCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show feedback and moderation statistics",
		RunE:  runStats(logger, db),
	}
}

func cleanupCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	var statsOnly bool
	var olderThanDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old rejected feedback",
		Long: `Remove feedback that moderation rejected more than the given number of
days ago. Tag links, question responses and clarifications are removed with it.

Use --stats to see what would be removed without performing the cleanup.`,
		RunE: runCleanup(logger, db, &statsOnly, &olderThanDays),
	}

	cmd.Flags().BoolVar(&statsOnly, "stats", false, "Only show what would be removed, don't perform the cleanup")
	cmd.Flags().IntVar(&olderThanDays, "older-than", 90, "Only remove rejected feedback older than this many days")

	return cmd
}

func runStats(logger *observability.Logger, db *sql.DB) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		logger.Info(ctx, "Showing database statistics")

		rows, err := db.QueryContext(ctx, "SELECT status, COUNT(*) FROM feedback GROUP BY status ORDER BY status")
		if err != nil {
			return contextutils.WrapError(err, "failed to query feedback stats")
		}
		defer func() { _ = rows.Close() }()

		fmt.Println("Feedback by status:")
		total := 0
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				return contextutils.WrapError(err, "failed to scan feedback stats row")
			}
			total += count
			fmt.Printf("  %-12s %d\n", status, count)
		}
		if err := rows.Err(); err != nil {
			return contextutils.WrapError(err, "failed to iterate feedback stats")
		}
		fmt.Printf("  %-12s %d\n", "total", total)

		var flagged int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM feedback WHERE moderation_status = 'flagged'").Scan(&flagged); err != nil {
			return contextutils.WrapError(err, "failed to query moderation queue size")
		}
		fmt.Printf("\nModeration queue: %d flagged item(s)\n", flagged)

		var activeCategories, totalCategories int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FILTER (WHERE is_active), COUNT(*) FROM categories").Scan(&activeCategories, &totalCategories); err == nil {
			fmt.Printf("Categories: %d active of %d\n", activeCategories, totalCategories)
		}

		return nil
	}
}

func runCleanup(logger *observability.Logger, db *sql.DB, statsOnly *bool, olderThanDays *int) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		var candidates int
		err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM feedback WHERE moderation_status = 'rejected' AND updated_at < NOW() - make_interval(days => $1)",
			*olderThanDays).Scan(&candidates)
		if err != nil {
			return contextutils.WrapError(err, "failed to count cleanup candidates")
		}

		if *statsOnly {
			fmt.Printf("Would remove %d rejected feedback item(s) older than %d days\n", candidates, *olderThanDays)
			return nil
		}

		result, err := db.ExecContext(ctx,
			"DELETE FROM feedback WHERE moderation_status = 'rejected' AND updated_at < NOW() - make_interval(days => $1)",
			*olderThanDays)
		if err != nil {
			return contextutils.WrapError(err, "failed to delete rejected feedback")
		}
		removed, _ := result.RowsAffected()

		logger.Info(ctx, "Cleanup completed", map[string]interface{}{"removed": removed})
		fmt.Printf("Removed %d rejected feedback item(s)\n", removed)
		return nil
	}
}
