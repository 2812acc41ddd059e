// Package store defines the interface for persisting articles, tags, tips
// and embeddings.
// By using an interface, we decouple the application from a specific database
// implementation, allowing for easier testing and flexibility in the future.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence surface used by the pipeline and the management
// commands.
type Store interface {
	ArticleStore
	VectorStore
	TagStore
	TipStore

	// Migrate creates missing tables and patches an older schema in place.
	// Safe to run repeatedly.
	Migrate(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close()
}

// ArticleStore covers the original article lifecycle.
type ArticleStore interface {
	// SaveArticles inserts articles, silently skipping rows whose url_hash
	// already exists. Returns the number of new rows.
	SaveArticles(ctx context.Context, articles []news.Article) (int, error)

	UnprocessedArticles(ctx context.Context, limit int) ([]news.Article, error)
	RecentArticles(ctx context.Context, days, limit int) ([]news.Article, error)
	ArticlesBySource(ctx context.Context, source string, limit int) ([]news.Article, error)
	ArticleExists(ctx context.Context, url string) (bool, error)

	// MarkProcessed flags articles as sent and stores their summaries.
	// summaries may be shorter than ids; missing entries store NULL.
	MarkProcessed(ctx context.Context, ids []int64, summaries []string) error

	// UpdateContent backfills the scraped article body (and its hash).
	UpdateContent(ctx context.Context, id int64, content, contentHash string) error

	Stats(ctx context.Context) (news.Stats, error)
	CleanupOlderThan(ctx context.Context, days int) (int64, error)
	ResetProcessed(ctx context.Context) (int64, error)
}

// VectorStore covers embeddings and article relationships.
type VectorStore interface {
	SaveEmbeddings(ctx context.Context, articleID int64, content, title []float32, model string, entities, topics []string) error
	ArticlesWithoutEmbeddings(ctx context.Context, limit int) ([]news.Article, error)

	// RecentEmbeddings returns candidate vectors for nearest-neighbor scans,
	// newest first.
	RecentEmbeddings(ctx context.Context, days, limit int) ([]news.EmbeddingRecord, error)

	// FindByContentHash returns the earlier article with identical content,
	// or ErrNotFound.
	FindByContentHash(ctx context.Context, hash string) (news.Article, error)

	AddRelationship(ctx context.Context, sourceID, targetID int64, relType string, confidence float64) error
	Relationships(ctx context.Context, articleID int64, types []string) ([]news.Relationship, error)
}

// TagStore covers the tagging subsystem.
type TagStore interface {
	GetOrCreateTag(ctx context.Context, name, category string) (int64, error)
	TagArticle(ctx context.Context, articleID, tagID int64, confidence float64, createdBy string) (bool, error)
	ArticleTags(ctx context.Context, articleID int64) ([]news.Tag, error)
	ArticlesByTag(ctx context.Context, tag string, limit int) ([]news.Article, error)
	TagStats(ctx context.Context) (news.TagStats, error)
}

// TipStore covers the "bite-sized sumo" rotation.
type TipStore interface {
	// SeedTips inserts the starter corpus when the table is empty.
	SeedTips(ctx context.Context, tips []news.Tip) (int, error)

	// UnusedTip prefers tips never used or not used within notUsedFor,
	// falling back to the least recently used one. Returns ErrNotFound when
	// the table is empty.
	UnusedTip(ctx context.Context, category string, notUsedFor time.Duration) (news.Tip, error)

	MarkTipUsed(ctx context.Context, tipID int64) error
}
