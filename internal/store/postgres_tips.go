package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// SeedTips inserts the starter tip corpus when the table is empty. Returns
// the number of tips inserted (zero when the table was already populated).
func (p *Postgres) SeedTips(ctx context.Context, tips []news.Tip) (int, error) {
	var count int64
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM sumo_tips`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tips: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	inserted := 0
	for _, tip := range tips {
		if _, err := p.pool.Exec(ctx, `
INSERT INTO sumo_tips (title, content, category, difficulty)
VALUES ($1, $2, $3, $4)`,
			tip.Title, tip.Content, strings.ToLower(tip.Category), strings.ToLower(tip.Difficulty),
		); err != nil {
			return inserted, fmt.Errorf("seed tip %q: %w", tip.Title, err)
		}
		inserted++
	}
	return inserted, nil
}

const tipColumns = `id, title, content, category, difficulty, usage_count, last_used_at`

// UnusedTip picks the next tip for a digest, preferring tips never used or
// idle past the rotation window, falling back to the least recently used.
func (p *Postgres) UnusedTip(ctx context.Context, category string, notUsedFor time.Duration) (news.Tip, error) {
	where := `is_active`
	args := []any{}
	if category != "" {
		where += fmt.Sprintf(` AND category = $%d`, len(args)+1)
		args = append(args, strings.ToLower(category))
	}

	cutoffArgs := append(append([]any{}, args...), time.Now().Add(-notUsedFor))
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
SELECT %s FROM sumo_tips
WHERE %s AND (last_used_at IS NULL OR last_used_at < $%d)
ORDER BY (last_used_at IS NOT NULL), usage_count ASC, random()
LIMIT 1`, tipColumns, where, len(cutoffArgs)), cutoffArgs...)
	if err != nil {
		return news.Tip{}, fmt.Errorf("query unused tip: %w", err)
	}
	tip, ok, err := scanOneTip(rows)
	if err != nil {
		return news.Tip{}, err
	}
	if ok {
		return tip, nil
	}

	// Every tip was used recently; recycle the stalest one.
	rows, err = p.pool.Query(ctx, fmt.Sprintf(`
SELECT %s FROM sumo_tips
WHERE %s
ORDER BY (last_used_at IS NOT NULL), last_used_at ASC, usage_count ASC
LIMIT 1`, tipColumns, where), args...)
	if err != nil {
		return news.Tip{}, fmt.Errorf("query fallback tip: %w", err)
	}
	tip, ok, err = scanOneTip(rows)
	if err != nil {
		return news.Tip{}, err
	}
	if !ok {
		return news.Tip{}, ErrNotFound
	}
	return tip, nil
}

// MarkTipUsed updates the rotation bookkeeping after a digest went out.
func (p *Postgres) MarkTipUsed(ctx context.Context, tipID int64) error {
	if _, err := p.pool.Exec(ctx, `
UPDATE sumo_tips
SET last_used_at = now(), usage_count = usage_count + 1
WHERE id = $1`, tipID); err != nil {
		return fmt.Errorf("mark tip used %d: %w", tipID, err)
	}
	return nil
}

func scanOneTip(rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}) (news.Tip, bool, error) {
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return news.Tip{}, false, fmt.Errorf("iterate tips: %w", err)
		}
		return news.Tip{}, false, nil
	}
	var tip news.Tip
	if err := rows.Scan(&tip.ID, &tip.Title, &tip.Content, &tip.Category, &tip.Difficulty, &tip.UsageCount, &tip.LastUsedAt); err != nil {
		return news.Tip{}, false, fmt.Errorf("scan tip: %w", err)
	}
	return tip, true, nil
}
