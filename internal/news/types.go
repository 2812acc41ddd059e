// Package news defines core types shared across subsystems.
package news

import "time"

// Article is the unit of everything the pipeline moves around: one news
// item scraped from a source, persisted, summarized, and eventually mailed.
type Article struct {
	ID          int64      `json:"id,omitempty"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Content     string     `json:"content,omitempty"`
	Source      string     `json:"source"`
	ArticleDate string     `json:"article_date,omitempty"` // YYYY-MM-DD when known
	ScrapedAt   time.Time  `json:"scraped_at"`
	URLHash     string     `json:"url_hash,omitempty"`
	ContentHash string     `json:"content_hash,omitempty"`
	Processed   bool       `json:"processed"`
	Summary     string     `json:"summary,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// EmbeddingRecord pairs an article with its stored content embedding for
// nearest-neighbor scans.
type EmbeddingRecord struct {
	ArticleID int64
	Title     string
	Embedding []float32
}

// Relationship links two articles that cover overlapping ground.
type Relationship struct {
	SourceID   int64     `json:"source_id"`
	TargetID   int64     `json:"target_id"`
	Type       string    `json:"type"` // reference, update, related
	Confidence float64   `json:"confidence"`
	Title      string    `json:"title,omitempty"` // target article title when joined
	CreatedAt  time.Time `json:"created_at"`
}

// Relationship types recorded by the similarity analyzer.
const (
	RelationReference = "reference"
	RelationUpdate    = "update"
	RelationRelated   = "related"
)

// Tag is a categorized label attached to articles.
type Tag struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	UsageCount int     `json:"usage_count"`
	Confidence float64 `json:"confidence,omitempty"` // set when joined through an article
}

// Tip is one "bite-sized sumo" fact rotated through digests.
type Tip struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Category   string     `json:"category"`
	Difficulty string     `json:"difficulty"`
	UsageCount int        `json:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// DigestMeta is the model-written envelope for one digest email.
type DigestMeta struct {
	Subject string `json:"subject"`
	Intro   string `json:"intro"`
}

// Stats summarizes the article store for the management surface.
type Stats struct {
	TotalArticles       int64            `json:"total_articles"`
	ProcessedArticles   int64            `json:"processed_articles"`
	UnprocessedArticles int64            `json:"unprocessed_articles"`
	ArticlesLast24h     int64            `json:"articles_last_24h"`
	ArticlesBySource    map[string]int64 `json:"articles_by_source"`
	WithEmbeddings      int64            `json:"articles_with_embeddings"`
	Relationships       int64            `json:"article_relationships"`
}

// TagStats summarizes tag usage.
type TagStats struct {
	TotalTags        int64            `json:"total_tags"`
	TagsByCategory   map[string]int64 `json:"tags_by_category"`
	MostUsed         []Tag            `json:"most_used_tags"`
	ArticlesWithTags int64            `json:"articles_with_tags"`
}
