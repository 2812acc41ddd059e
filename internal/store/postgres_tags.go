package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// GetOrCreateTag returns the ID for a tag name, creating it with the given
// category on first sight. Names are stored lowercased.
func (p *Postgres) GetOrCreateTag(ctx context.Context, name, category string) (int64, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, fmt.Errorf("tag name is required")
	}
	category = strings.ToLower(strings.TrimSpace(category))

	var id int64
	// The DO UPDATE is a no-op write so RETURNING yields the existing row.
	err := p.pool.QueryRow(ctx, `
INSERT INTO tags (name, category)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`, name, category).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("get or create tag %q: %w", name, err)
	}
	return id, nil
}

// TagArticle attaches a tag to an article, bumping the tag's usage count on
// first attachment. Returns false when the pair already existed.
func (p *Postgres) TagArticle(ctx context.Context, articleID, tagID int64, confidence float64, createdBy string) (bool, error) {
	tag, err := p.pool.Exec(ctx, `
INSERT INTO article_tags (article_id, tag_id, confidence_score, created_by)
VALUES ($1, $2, $3, $4)
ON CONFLICT (article_id, tag_id) DO NOTHING`,
		articleID, tagID, confidence, createdBy,
	)
	if err != nil {
		return false, fmt.Errorf("tag article %d: %w", articleID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := p.pool.Exec(ctx,
		`UPDATE tags SET usage_count = usage_count + 1 WHERE id = $1`, tagID); err != nil {
		return false, fmt.Errorf("bump tag usage %d: %w", tagID, err)
	}
	return true, nil
}

// ArticleTags returns the tags on one article, highest confidence first.
func (p *Postgres) ArticleTags(ctx context.Context, articleID int64) ([]news.Tag, error) {
	rows, err := p.pool.Query(ctx, `
SELECT t.id, t.name, t.category, t.usage_count, at.confidence_score
FROM tags t
JOIN article_tags at ON at.tag_id = t.id
WHERE at.article_id = $1
ORDER BY at.confidence_score DESC, t.name`, articleID)
	if err != nil {
		return nil, fmt.Errorf("query article tags: %w", err)
	}
	defer rows.Close()

	var out []news.Tag
	for rows.Next() {
		var t news.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.UsageCount, &t.Confidence); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return out, nil
}

// ArticlesByTag returns the latest articles carrying a tag name.
func (p *Postgres) ArticlesByTag(ctx context.Context, tag string, limit int) ([]news.Article, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
SELECT %s FROM news_articles a
JOIN article_tags at ON at.article_id = a.id
JOIN tags t ON t.id = at.tag_id
WHERE t.name = $1
ORDER BY a.scraped_at DESC
LIMIT $2`, prefixColumns("a", articleColumns)), strings.ToLower(strings.TrimSpace(tag)), limit)
	if err != nil {
		return nil, fmt.Errorf("query articles by tag: %w", err)
	}
	return scanArticles(rows)
}

// TagStats aggregates tag usage for the management surface.
func (p *Postgres) TagStats(ctx context.Context) (news.TagStats, error) {
	var s news.TagStats
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM tags`).Scan(&s.TotalTags); err != nil {
		return news.TagStats{}, fmt.Errorf("count tags: %w", err)
	}
	if err := p.pool.QueryRow(ctx, `SELECT count(DISTINCT article_id) FROM article_tags`).Scan(&s.ArticlesWithTags); err != nil {
		return news.TagStats{}, fmt.Errorf("count tagged articles: %w", err)
	}

	rows, err := p.pool.Query(ctx, `
SELECT category, count(*) FROM tags
GROUP BY category
ORDER BY count(*) DESC`)
	if err != nil {
		return news.TagStats{}, fmt.Errorf("query tags by category: %w", err)
	}
	s.TagsByCategory = make(map[string]int64)
	for rows.Next() {
		var category string
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			rows.Close()
			return news.TagStats{}, fmt.Errorf("scan category row: %w", err)
		}
		s.TagsByCategory[category] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return news.TagStats{}, fmt.Errorf("iterate categories: %w", err)
	}

	rows, err = p.pool.Query(ctx, `
SELECT id, name, category, usage_count FROM tags
ORDER BY usage_count DESC, name
LIMIT 20`)
	if err != nil {
		return news.TagStats{}, fmt.Errorf("query most used tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t news.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.UsageCount); err != nil {
			return news.TagStats{}, fmt.Errorf("scan most used tag: %w", err)
		}
		s.MostUsed = append(s.MostUsed, t)
	}
	if err := rows.Err(); err != nil {
		return news.TagStats{}, fmt.Errorf("iterate most used tags: %w", err)
	}
	return s, nil
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}
