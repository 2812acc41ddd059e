package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// SaveEmbeddings stores both vectors plus the extracted entities/topics for
// one article. pgx maps []float32 onto REAL[] columns directly.
func (p *Postgres) SaveEmbeddings(ctx context.Context, articleID int64, content, title []float32, model string, entities, topics []string) error {
	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	if _, err := p.pool.Exec(ctx, `
UPDATE news_articles
SET content_embedding = $1,
    title_embedding = $2,
    embedding_model = $3,
    entities = $4,
    topics = $5
WHERE id = $6`,
		content, title, model, entitiesJSON, topicsJSON, articleID,
	); err != nil {
		return fmt.Errorf("save embeddings %d: %w", articleID, err)
	}
	return nil
}

// ArticlesWithoutEmbeddings returns rows the backfill pass still has to
// process, oldest first so the archive catches up front to back.
func (p *Postgres) ArticlesWithoutEmbeddings(ctx context.Context, limit int) ([]news.Article, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
SELECT %s FROM news_articles
WHERE content_embedding IS NULL
ORDER BY scraped_at ASC
LIMIT $1`, articleColumns), limit)
	if err != nil {
		return nil, fmt.Errorf("query articles without embeddings: %w", err)
	}
	return scanArticles(rows)
}

// RecentEmbeddings returns candidate vectors for the nearest-neighbor scan.
// The window keeps the scan proportional to recent activity rather than the
// whole archive.
func (p *Postgres) RecentEmbeddings(ctx context.Context, days, limit int) ([]news.EmbeddingRecord, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, title, content_embedding
FROM news_articles
WHERE content_embedding IS NOT NULL
  AND scraped_at >= now() - make_interval(days => $1)
ORDER BY scraped_at DESC
LIMIT $2`, days, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent embeddings: %w", err)
	}
	defer rows.Close()

	var out []news.EmbeddingRecord
	for rows.Next() {
		var rec news.EmbeddingRecord
		if err := rows.Scan(&rec.ArticleID, &rec.Title, &rec.Embedding); err != nil {
			return nil, fmt.Errorf("scan embedding row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return out, nil
}

// FindByContentHash returns the earliest stored article with identical
// content, or ErrNotFound.
func (p *Postgres) FindByContentHash(ctx context.Context, hash string) (news.Article, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
SELECT %s FROM news_articles
WHERE content_hash = $1
ORDER BY scraped_at ASC
LIMIT 1`, articleColumns), hash)
	if err != nil {
		return news.Article{}, fmt.Errorf("query by content hash: %w", err)
	}
	articles, err := scanArticles(rows)
	if err != nil {
		return news.Article{}, err
	}
	if len(articles) == 0 {
		return news.Article{}, ErrNotFound
	}
	return articles[0], nil
}

// AddRelationship records a link between two articles. Replays of the same
// pair/type update the confidence instead of erroring.
func (p *Postgres) AddRelationship(ctx context.Context, sourceID, targetID int64, relType string, confidence float64) error {
	if _, err := p.pool.Exec(ctx, `
INSERT INTO article_relationships (source_id, target_id, relationship, confidence_score)
VALUES ($1, $2, $3, $4)
ON CONFLICT (source_id, target_id, relationship)
DO UPDATE SET confidence_score = EXCLUDED.confidence_score`,
		sourceID, targetID, relType, confidence,
	); err != nil {
		return fmt.Errorf("add relationship %d->%d: %w", sourceID, targetID, err)
	}
	return nil
}

// Relationships returns the links from one article, joined with the target
// titles, optionally filtered by type.
func (p *Postgres) Relationships(ctx context.Context, articleID int64, types []string) ([]news.Relationship, error) {
	query := `
SELECT r.source_id, r.target_id, r.relationship, r.confidence_score, r.created_at, a.title
FROM article_relationships r
JOIN news_articles a ON a.id = r.target_id
WHERE r.source_id = $1`
	args := []any{articleID}
	if len(types) > 0 {
		query += ` AND r.relationship = ANY($2)`
		args = append(args, types)
	}
	query += ` ORDER BY r.confidence_score DESC`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	var out []news.Relationship
	for rows.Next() {
		var rel news.Relationship
		if err := rows.Scan(&rel.SourceID, &rel.TargetID, &rel.Type, &rel.Confidence, &rel.CreatedAt, &rel.Title); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		out = append(out, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return out, nil
}
