package cmd

import (
	"github.com/spf13/cobra"
)

// newRunCmd creates the 'run' subcommand: the full pipeline in one shot,
// the way a cron job would drive it.
func newRunCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape the sources, then build and email a digest",
		Long: `Runs the whole pipeline: scrape every source, analyze new articles for
duplicates, then build and deliver a digest. Equivalent to 'scrape'
followed by 'send'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runScrapeCommand(cmd, nil); err != nil {
				return err
			}
			return runSendCommand(cmd, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render the digest without sending it")
	return cmd
}
