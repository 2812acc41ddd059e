package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newDBCmd creates the 'db' subcommand group for inspecting and maintaining
// the article store.
func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect and maintain the article database",
	}
	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBStatsCmd())
	cmd.AddCommand(newDBRecentCmd())
	cmd.AddCommand(newDBUnprocessedCmd())
	cmd.AddCommand(newDBCleanupCmd())
	cmd.AddCommand(newDBResetCmd())
	cmd.AddCommand(newDBBackfillCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and patch older schemas in place",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Store().Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate schema: %w", err)
			}
			a.Logger().Info("schema up to date")
			return nil
		},
	}
}

func newDBStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print article and tag statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := a.Store().Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("load stats: %w", err)
			}
			tagStats, err := a.Store().TagStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("load tag stats: %w", err)
			}
			return printJSON(map[string]any{"articles": stats, "tags": tagStats})
		},
	}
}

func newDBRecentCmd() *cobra.Command {
	var days, limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently scraped articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			articles, err := a.Store().RecentArticles(cmd.Context(), days, limit)
			if err != nil {
				return fmt.Errorf("load recent articles: %w", err)
			}
			return printJSON(articles)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "how many days back to list")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum articles to list")
	return cmd
}

func newDBUnprocessedCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "unprocessed",
		Short: "List articles waiting for the next digest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			articles, err := a.Store().UnprocessedArticles(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load unprocessed articles: %w", err)
			}
			return printJSON(articles)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum articles to list")
	return cmd
}

func newDBCleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete processed articles older than a cutoff",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if days <= 0 {
				days = a.Config().Digest.CleanupDays
			}
			removed, err := a.Store().CleanupOlderThan(cmd.Context(), days)
			if err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
			a.Logger().Info("cleanup finished",
				zap.Int64("removed", removed), zap.Int("days", days))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "age cutoff in days (default from config)")
	return cmd
}

func newDBResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the processed flag on every article",
		Long: `Marks every article unprocessed so the next digest reconsiders the whole
store. Requires --yes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			reset, err := a.Store().ResetProcessed(cmd.Context())
			if err != nil {
				return fmt.Errorf("reset processed flags: %w", err)
			}
			a.Logger().Info("processed flags cleared", zap.Int64("articles", reset))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newDBBackfillCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Generate embeddings for articles that predate the vector columns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Store().Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate schema: %w", err)
			}
			done, err := a.Analyzer().Backfill(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("backfill embeddings: %w", err)
			}
			a.Logger().Info("backfill finished", zap.Int("articles", done))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum articles to backfill")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
