package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/sumo-news-digest/internal/hash"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

func newMockStore(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewPostgresWithPool(mock)
	require.NoError(t, err)
	return store, mock
}

func TestSaveArticlesSkipsDuplicates(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()

	articles := []news.Article{
		{Title: "Onosato promoted to yokozuna", URL: "https://www.sumo.or.jp/En/news/1", Source: "Japan Sumo Association", ScrapedAt: now},
		{Title: "Already stored article", URL: "https://www.sumo.or.jp/En/news/2", Source: "Japan Sumo Association", ScrapedAt: now},
	}

	mock.ExpectExec("INSERT INTO news_articles").
		WithArgs(articles[0].Title, articles[0].URL, "", articles[0].Source, "", now, hash.URL(articles[0].URL), "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO news_articles").
		WithArgs(articles[1].Title, articles[1].URL, "", articles[1].Source, "", now, hash.URL(articles[1].URL), "").
		WillReturnResult(pgxmock.NewResult("INSERT", 0)) // conflict, skipped

	saved, err := store.SaveArticles(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnprocessedArticlesScansRows(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()
	content := "body text"

	rows := pgxmock.NewRows([]string{
		"id", "title", "url", "content", "source", "article_date",
		"scraped_at", "url_hash", "content_hash", "processed", "summary", "processed_at",
	}).AddRow(
		int64(7), "Hoshoryu wins Autumn Basho", "https://example.com/a", &content,
		"Japan Times Sumo", (*string)(nil), now, "abc", (*string)(nil), false, (*string)(nil), (*time.Time)(nil),
	)
	mock.ExpectQuery("SELECT (.+) FROM news_articles").
		WithArgs(10).
		WillReturnRows(rows)

	got, err := store.UnprocessedArticles(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)
	assert.Equal(t, "body text", got[0].Content)
	assert.False(t, got[0].Processed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkProcessedStoresSummaries(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE news_articles").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE news_articles").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.MarkProcessed(context.Background(), []int64{1, 2}, []string{"summary one"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsAggregates(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT(.+)FROM news_articles").
		WillReturnRows(pgxmock.NewRows([]string{"count", "processed", "recent", "embedded"}).
			AddRow(int64(40), int64(25), int64(6), int64(30)))
	mock.ExpectQuery("SELECT count(.+) FROM article_relationships").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery("SELECT source, count(.+) FROM news_articles").
		WillReturnRows(pgxmock.NewRows([]string{"source", "count"}).
			AddRow("Japan Sumo Association", int64(30)).
			AddRow("IFS Sumo", int64(10)))

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(40), stats.TotalArticles)
	assert.Equal(t, int64(15), stats.UnprocessedArticles)
	assert.Equal(t, int64(12), stats.Relationships)
	assert.Equal(t, int64(30), stats.ArticlesBySource["Japan Sumo Association"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByContentHashNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM news_articles").
		WithArgs("deadbeef").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "url", "content", "source", "article_date",
			"scraped_at", "url_hash", "content_hash", "processed", "summary", "processed_at",
		}))

	_, err := store.FindByContentHash(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEmbeddingsWritesVectorsAndJSON(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	content := []float32{0.1, 0.2}
	title := []float32{0.3, 0.4}
	mock.ExpectExec("UPDATE news_articles").
		WithArgs(content, title, "text-embedding-004",
			[]byte(`["Onosato"]`), []byte(`["promotion"]`), int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.SaveEmbeddings(context.Background(), 9, content, title,
		"text-embedding-004", []string{"Onosato"}, []string{"promotion"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateTagReturnsExistingID(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO tags").
		WithArgs("yokozuna", "rank").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := store.GetOrCreateTag(context.Background(), "  Yokozuna ", "Rank")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagArticleBumpsUsageOnlyOnFirstAttach(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO article_tags").
		WithArgs(int64(1), int64(3), 0.9, "ai-system").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE tags SET usage_count").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	added, err := store.TagArticle(context.Background(), 1, 3, 0.9, "ai-system")
	require.NoError(t, err)
	assert.True(t, added)

	// Second attach conflicts; no usage bump expected.
	mock.ExpectExec("INSERT INTO article_tags").
		WithArgs(int64(1), int64(3), 0.9, "ai-system").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	added, err = store.TagArticle(context.Background(), 1, 3, 0.9, "ai-system")
	require.NoError(t, err)
	assert.False(t, added)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedTipsOnlyWhenEmpty(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	tips := []news.Tip{{Title: "Ancient Origins", Content: "...", Category: "History", Difficulty: "Beginner"}}

	mock.ExpectQuery("SELECT count(.+) FROM sumo_tips").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec("INSERT INTO sumo_tips").
		WithArgs("Ancient Origins", "...", "history", "beginner").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := store.SeedTips(context.Background(), tips)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mock.ExpectQuery("SELECT count(.+) FROM sumo_tips").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(17)))

	n, err = store.SeedTips(context.Background(), tips)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnusedTipFallsBackToLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	used := time.Unix(1690000000, 0).UTC()

	// No tip outside the rotation window.
	mock.ExpectQuery("SELECT (.+) FROM sumo_tips").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "content", "category", "difficulty", "usage_count", "last_used_at",
		}))
	// Fallback returns the stalest tip.
	mock.ExpectQuery("SELECT (.+) FROM sumo_tips").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "content", "category", "difficulty", "usage_count", "last_used_at",
		}).AddRow(int64(4), "Salt Purification Ritual", "Wrestlers throw salt...", "rituals", "beginner", 3, &used))

	tip, err := store.UnusedTip(context.Background(), "", 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), tip.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateAppliesAllGroups(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	total := len(baseSchema) + len(vectorPatch) + len(tagPatch) + len(tipPatch)
	for i := 0; i < total; i++ {
		mock.ExpectExec("(CREATE|ALTER)").
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
