package store

import (
	"context"
	"fmt"
)

// baseSchema is the original article table, present since the first version
// of the tool.
var baseSchema = []string{
	`CREATE TABLE IF NOT EXISTS news_articles (
	id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	title        TEXT NOT NULL,
	url          TEXT NOT NULL UNIQUE,
	content      TEXT,
	source       TEXT NOT NULL,
	article_date TEXT,
	scraped_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	url_hash     TEXT NOT NULL UNIQUE,
	processed    BOOLEAN NOT NULL DEFAULT FALSE,
	summary      TEXT,
	processed_at TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS idx_news_articles_source ON news_articles (source)`,
	`CREATE INDEX IF NOT EXISTS idx_news_articles_scraped_at ON news_articles (scraped_at)`,
	`CREATE INDEX IF NOT EXISTS idx_news_articles_processed ON news_articles (processed)`,
}

// vectorPatch upgrades a pre-vector database in place. ADD COLUMN IF NOT
// EXISTS makes each statement a no-op on databases that already carry the
// columns, so the whole migration can run on every start.
var vectorPatch = []string{
	`ALTER TABLE news_articles ADD COLUMN IF NOT EXISTS content_hash TEXT`,
	`ALTER TABLE news_articles ADD COLUMN IF NOT EXISTS content_embedding REAL[]`,
	`ALTER TABLE news_articles ADD COLUMN IF NOT EXISTS title_embedding REAL[]`,
	`ALTER TABLE news_articles ADD COLUMN IF NOT EXISTS embedding_model TEXT`,
	`ALTER TABLE news_articles ADD COLUMN IF NOT EXISTS entities JSONB`,
	`ALTER TABLE news_articles ADD COLUMN IF NOT EXISTS topics JSONB`,
	`CREATE INDEX IF NOT EXISTS idx_news_articles_content_hash ON news_articles (content_hash)`,
	`CREATE TABLE IF NOT EXISTS article_relationships (
	source_id        BIGINT NOT NULL REFERENCES news_articles (id) ON DELETE CASCADE,
	target_id        BIGINT NOT NULL REFERENCES news_articles (id) ON DELETE CASCADE,
	relationship     TEXT NOT NULL,
	confidence_score DOUBLE PRECISION NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source_id, target_id, relationship)
)`,
}

// tagPatch adds the tagging subsystem.
var tagPatch = []string{
	`CREATE TABLE IF NOT EXISTS tags (
	id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	category    TEXT NOT NULL,
	usage_count INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS article_tags (
	article_id       BIGINT NOT NULL REFERENCES news_articles (id) ON DELETE CASCADE,
	tag_id           BIGINT NOT NULL REFERENCES tags (id) ON DELETE CASCADE,
	confidence_score DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_by       TEXT NOT NULL DEFAULT 'system',
	PRIMARY KEY (article_id, tag_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_article_tags_tag ON article_tags (tag_id)`,
}

// tipPatch adds the "bite-sized sumo" rotation.
var tipPatch = []string{
	`CREATE TABLE IF NOT EXISTS sumo_tips (
	id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	title        TEXT NOT NULL,
	content      TEXT NOT NULL,
	category     TEXT NOT NULL,
	difficulty   TEXT NOT NULL DEFAULT 'beginner',
	usage_count  INTEGER NOT NULL DEFAULT 0,
	last_used_at TIMESTAMPTZ,
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
}

// Migrate creates missing tables and patches older databases in place. The
// statement groups are ordered: base schema first, then each later feature's
// patch, mirroring how the schema actually evolved.
func (p *Postgres) Migrate(ctx context.Context) error {
	groups := [][]string{baseSchema, vectorPatch, tagPatch, tipPatch}
	for _, group := range groups {
		for _, stmt := range group {
			if _, err := p.pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema statement: %w", err)
			}
		}
	}
	return nil
}
