package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	t.Parallel()

	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "scrape")
	assert.Contains(t, names, "send")
	assert.Contains(t, names, "db")
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "check")

	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestSendCommandHasDryRunFlag(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, newSendCmd().Flags().Lookup("dry-run"))
	assert.NotNil(t, newRunCmd().Flags().Lookup("dry-run"))
}

func TestDBResetRequiresConfirmation(t *testing.T) {
	t.Parallel()

	cmd := newDBResetCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestDBSubcommands(t *testing.T) {
	t.Parallel()

	var names []string
	for _, c := range newDBCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, names,
		[]string{"migrate", "stats", "recent", "unprocessed", "cleanup", "reset", "backfill"})
}
