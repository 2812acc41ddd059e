package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/sumo-news-digest/internal/hash"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// querier is the slice of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres implements Store on top of a pgx connection pool.
type Postgres struct {
	pool querier
}

// Config controls the Postgres connection pool.
type Config struct {
	DSN      string
	MaxConns int32
}

// NewPostgres connects to Postgres and returns a Store.
func NewPostgres(ctx context.Context, cfg Config) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresWithPool constructs a store from an existing pool (primarily
// for testing).
func NewPostgresWithPool(pool querier) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (p *Postgres) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
}

const articleColumns = `id, title, url, content, source, article_date, scraped_at, url_hash, content_hash, processed, summary, processed_at`

// SaveArticles inserts articles one by one, relying on the url_hash unique
// constraint to skip rows already seen in earlier runs.
func (p *Postgres) SaveArticles(ctx context.Context, articles []news.Article) (int, error) {
	saved := 0
	for _, a := range articles {
		urlHash := a.URLHash
		if urlHash == "" {
			urlHash = hash.URL(a.URL)
		}
		contentHash := a.ContentHash
		if contentHash == "" && a.Content != "" {
			contentHash = hash.Content(a.Content)
		}
		scrapedAt := a.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now().UTC()
		}
		tag, err := p.pool.Exec(ctx, `
INSERT INTO news_articles (title, url, content, source, article_date, scraped_at, url_hash, content_hash)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''))
ON CONFLICT (url_hash) DO NOTHING`,
			a.Title, a.URL, a.Content, a.Source, a.ArticleDate, scrapedAt, urlHash, contentHash,
		)
		if err != nil {
			return saved, fmt.Errorf("insert article %q: %w", a.URL, err)
		}
		saved += int(tag.RowsAffected())
	}
	return saved, nil
}

// UnprocessedArticles returns articles not yet included in a digest,
// newest first.
func (p *Postgres) UnprocessedArticles(ctx context.Context, limit int) ([]news.Article, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
SELECT %s FROM news_articles
WHERE processed = FALSE
ORDER BY scraped_at DESC
LIMIT $1`, articleColumns), limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed: %w", err)
	}
	return scanArticles(rows)
}

// RecentArticles returns articles scraped in the last N days.
func (p *Postgres) RecentArticles(ctx context.Context, days, limit int) ([]news.Article, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
SELECT %s FROM news_articles
WHERE scraped_at >= now() - make_interval(days => $1)
ORDER BY scraped_at DESC
LIMIT $2`, articleColumns), days, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	return scanArticles(rows)
}

// ArticlesBySource returns the latest articles for one source.
func (p *Postgres) ArticlesBySource(ctx context.Context, source string, limit int) ([]news.Article, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
SELECT %s FROM news_articles
WHERE source = $1
ORDER BY scraped_at DESC
LIMIT $2`, articleColumns), source, limit)
	if err != nil {
		return nil, fmt.Errorf("query by source: %w", err)
	}
	return scanArticles(rows)
}

// ArticleExists reports whether a URL has been stored before.
func (p *Postgres) ArticleExists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM news_articles WHERE url_hash = $1)`,
		hash.URL(url),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query article exists: %w", err)
	}
	return exists, nil
}

// MarkProcessed flags the given articles as sent, storing summaries where
// provided.
func (p *Postgres) MarkProcessed(ctx context.Context, ids []int64, summaries []string) error {
	now := time.Now().UTC()
	for i, id := range ids {
		var summary *string
		if i < len(summaries) && summaries[i] != "" {
			summary = &summaries[i]
		}
		if _, err := p.pool.Exec(ctx, `
UPDATE news_articles
SET processed = TRUE, processed_at = $1, summary = $2
WHERE id = $3`, now, summary, id); err != nil {
			return fmt.Errorf("mark processed %d: %w", id, err)
		}
	}
	return nil
}

// UpdateContent stores the fetched article body and its content hash.
func (p *Postgres) UpdateContent(ctx context.Context, id int64, content, contentHash string) error {
	if _, err := p.pool.Exec(ctx, `
UPDATE news_articles
SET content = $1, content_hash = NULLIF($2, '')
WHERE id = $3`, content, contentHash, id); err != nil {
		return fmt.Errorf("update content %d: %w", id, err)
	}
	return nil
}

// Stats aggregates the counters shown by the management surface.
func (p *Postgres) Stats(ctx context.Context) (news.Stats, error) {
	var s news.Stats
	err := p.pool.QueryRow(ctx, `
SELECT
	count(*),
	count(*) FILTER (WHERE processed),
	count(*) FILTER (WHERE scraped_at >= now() - interval '1 day'),
	count(*) FILTER (WHERE content_embedding IS NOT NULL)
FROM news_articles`).Scan(&s.TotalArticles, &s.ProcessedArticles, &s.ArticlesLast24h, &s.WithEmbeddings)
	if err != nil {
		return news.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	s.UnprocessedArticles = s.TotalArticles - s.ProcessedArticles

	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM article_relationships`).Scan(&s.Relationships); err != nil {
		return news.Stats{}, fmt.Errorf("query relationship count: %w", err)
	}

	rows, err := p.pool.Query(ctx, `
SELECT source, count(*) FROM news_articles
GROUP BY source
ORDER BY count(*) DESC`)
	if err != nil {
		return news.Stats{}, fmt.Errorf("query stats by source: %w", err)
	}
	defer rows.Close()
	s.ArticlesBySource = make(map[string]int64)
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return news.Stats{}, fmt.Errorf("scan source row: %w", err)
		}
		s.ArticlesBySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return news.Stats{}, fmt.Errorf("iterate source rows: %w", err)
	}
	return s, nil
}

// CleanupOlderThan deletes articles scraped more than N days ago.
func (p *Postgres) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	tag, err := p.pool.Exec(ctx, `
DELETE FROM news_articles
WHERE scraped_at < now() - make_interval(days => $1)`, days)
	if err != nil {
		return 0, fmt.Errorf("cleanup old articles: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ResetProcessed clears the processed flags. Testing convenience.
func (p *Postgres) ResetProcessed(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `
UPDATE news_articles
SET processed = FALSE, processed_at = NULL, summary = NULL`)
	if err != nil {
		return 0, fmt.Errorf("reset processed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanArticles(rows pgx.Rows) ([]news.Article, error) {
	defer rows.Close()
	var out []news.Article
	for rows.Next() {
		var (
			a           news.Article
			content     *string
			articleDate *string
			contentHash *string
			summary     *string
		)
		if err := rows.Scan(
			&a.ID, &a.Title, &a.URL, &content, &a.Source, &articleDate,
			&a.ScrapedAt, &a.URLHash, &contentHash, &a.Processed, &summary, &a.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if content != nil {
			a.Content = *content
		}
		if articleDate != nil {
			a.ArticleDate = *articleDate
		}
		if contentHash != nil {
			a.ContentHash = *contentHash
		}
		if summary != nil {
			a.Summary = *summary
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}
