package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newScrapeCmd creates the 'scrape' subcommand: fetch the sources, save new
// articles, and run the similarity pass, without sending anything.
func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the news sources and store new articles",
		Long: `Fetches every configured source, filters and deduplicates the harvest,
saves new articles, and runs the duplicate analysis over them.`,
		RunE: runScrapeCommand,
	}
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := a.Logger()

	if err := a.Store().Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	scraper, err := a.Scraper()
	if err != nil {
		return err
	}
	res, err := scraper.ScrapeAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("scrape sources: %w", err)
	}
	logger.Info("scrape finished",
		zap.Int("found", res.Found), zap.Int("saved", res.Saved))

	if res.Saved > 0 && a.AI().Enabled() {
		analyzed, err := a.Analyzer().Backfill(cmd.Context(), res.Saved)
		if err != nil {
			logger.Warn("similarity analysis failed", zap.Error(err))
		} else {
			logger.Info("similarity analysis finished", zap.Int("analyzed", analyzed))
		}
	}
	return nil
}
