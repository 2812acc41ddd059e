package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
	"github.com/JakeFAU/sumo-news-digest/internal/storage"
	"github.com/JakeFAU/sumo-news-digest/internal/storage/local"
)

func newArchiver(t *testing.T) *Archiver {
	t.Helper()
	blobs, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return New(blobs, zap.NewNop())
}

func TestWriteAndListRoundTrip(t *testing.T) {
	t.Parallel()

	a := newArchiver(t)
	ctx := context.Background()

	uri, err := a.Write(ctx, Email{
		Subject:     "Sumo News",
		Intro:       "Latest from the dohyo",
		Recipient:   "fan@example.com",
		Articles:    []news.Article{{ID: 1, Title: "Basho opens"}, {ID: 2, Title: "Promotion"}},
		HTMLContent: "<html><body>digest</body></html>",
		TextContent: "digest",
	})
	require.NoError(t, err)
	assert.Contains(t, uri, "email_")
	assert.True(t, strings.HasSuffix(uri, ".json"))

	emails, err := a.ListRecent(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "Sumo News", emails[0].Subject)
	assert.Equal(t, 2, emails[0].ArticleCount)
	assert.NotEmpty(t, emails[0].ID, "IDs assigned on write")
}

func TestListRecentSkipsOldArchives(t *testing.T) {
	t.Parallel()

	a := newArchiver(t)
	ctx := context.Background()

	_, err := a.Write(ctx, Email{
		Subject:   "stale",
		Timestamp: time.Now().Add(-40 * 24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = a.Write(ctx, Email{Subject: "fresh"})
	require.NoError(t, err)

	emails, err := a.ListRecent(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "fresh", emails[0].Subject)
}

func TestListRecentNewestFirst(t *testing.T) {
	t.Parallel()

	a := newArchiver(t)
	ctx := context.Background()

	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now().Add(-time.Hour)
	_, err := a.Write(ctx, Email{Subject: "older", Timestamp: older})
	require.NoError(t, err)
	_, err = a.Write(ctx, Email{Subject: "newer", Timestamp: newer})
	require.NoError(t, err)

	emails, err := a.ListRecent(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, emails, 2)
	assert.Equal(t, "newer", emails[0].Subject)
}

func TestArticleIDs(t *testing.T) {
	t.Parallel()

	ids := ArticleIDs([]Email{
		{Articles: []news.Article{{ID: 1}, {ID: 2}}},
		{Articles: []news.Article{{ID: 2}, {ID: 3}, {}}},
	})
	assert.Equal(t, map[int64]bool{1: true, 2: true, 3: true}, ids)
}

func TestNoOpProviderArchivesNothing(t *testing.T) {
	t.Parallel()

	a := New(&storage.NoOpProvider{}, zap.NewNop())
	_, err := a.Write(context.Background(), Email{Subject: "dry run"})
	require.NoError(t, err)

	emails, err := a.ListRecent(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Empty(t, emails)
}
