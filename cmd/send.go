package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newSendCmd creates the 'send' subcommand: build and deliver one digest
// from whatever unprocessed articles are waiting.
func newSendCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build and email a digest from unprocessed articles",
		Long: `Selects unprocessed articles, summarizes them, drops duplicates of
recently sent stories, and emails the digest with a rotating sumo fact.
With --dry-run everything is rendered and archived but nothing is sent
and articles stay unprocessed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSendCommand(cmd, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render the digest without sending it")
	return cmd
}

func runSendCommand(cmd *cobra.Command, dryRun bool) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := a.Logger()

	if err := a.Store().Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	if err := a.Tips().Seed(cmd.Context()); err != nil {
		logger.Warn("tip seeding failed", zap.Error(err))
	}

	summary, err := a.DigestBuilder(dryRun).Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	logger.Info("digest run finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("sent", summary.Sent),
		zap.Int("rejected", summary.Rejected),
		zap.String("subject", summary.Subject),
		zap.Bool("dry_run", summary.DryRun))
	return nil
}
