package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCheckCmd creates the 'check' subcommand: exercise each component once
// and report what works.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the database, SMTP, and model connections",
		RunE:  runCheckCommand,
	}
}

func runCheckCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := a.Logger()
	ok := true

	if err := a.Store().Migrate(cmd.Context()); err != nil {
		logger.Error("database check failed", zap.Error(err))
		ok = false
	} else if stats, err := a.Store().Stats(cmd.Context()); err != nil {
		logger.Error("database check failed", zap.Error(err))
		ok = false
	} else {
		logger.Info("database ok", zap.Int64("articles", stats.TotalArticles))
	}

	if err := a.Mailer(false).TestConnection(cmd.Context()); err != nil {
		logger.Error("smtp check failed", zap.Error(err))
		ok = false
	} else {
		logger.Info("smtp ok")
	}

	if !a.AI().Enabled() {
		logger.Warn("no model API key set, summaries will be basic")
	} else if _, err := a.AI().Embed(cmd.Context(), "sumo"); err != nil {
		logger.Error("model check failed", zap.Error(err))
		ok = false
	} else {
		logger.Info("model ok")
	}

	if !ok {
		return errors.New("one or more component checks failed")
	}
	logger.Info("all components ok")
	return nil
}
