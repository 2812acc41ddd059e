// Package tags implements the tagging subsystem: rule-based tag generation,
// automatic categorization, and persistence through the store.
package tags

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/ai"
)

// tagStore is the slice of the store the Manager needs.
type tagStore interface {
	GetOrCreateTag(ctx context.Context, name, category string) (int64, error)
	TagArticle(ctx context.Context, articleID, tagID int64, confidence float64, createdBy string) (bool, error)
}

// Manager attaches tags to stored articles.
type Manager struct {
	store  tagStore
	logger *zap.Logger
}

// New constructs a Manager.
func New(st tagStore, logger *zap.Logger) *Manager {
	return &Manager{store: st, logger: logger}
}

// categoryPatterns drives AutoCategorize. Order matters: the first bucket
// with a hit wins.
var categoryPatterns = []struct {
	category string
	terms    []string
}{
	{"tournament", []string{"basho", "tournament", "championship", "grand"}},
	{"rank", []string{"yokozuna", "ozeki", "sekiwake", "komusubi", "maegashira"}},
	{"wrestler", []string{"terunofuji", "onosato", "hoshoryu", "kotonowaka", "kirishima", "mitakeumi"}},
	{"event", []string{"promotion", "retirement", "injury", "victory", "defeat", "charity"}},
	{"location", []string{"tokyo", "osaka", "nagoya", "kyushu", "london", "japan", "noto"}},
	{"organization", []string{"jsa", "ifs", "association", "federation"}},
	{"content-type", []string{"interview", "schedule", "results", "news", "highlights", "banzuke"}},
}

// AutoCategorize buckets a tag name by pattern; unknown names land in
// "general".
func AutoCategorize(name string) string {
	lower := strings.ToLower(name)
	for _, bucket := range categoryPatterns {
		for _, term := range bucket.terms {
			if strings.Contains(lower, term) {
				return bucket.category
			}
		}
	}
	if strings.ContainsAny(lower, "0123456789") {
		for _, year := range []string{"2024", "2025", "2026"} {
			if strings.Contains(lower, year) {
				return "date"
			}
		}
	}
	return "general"
}

// rankTerms, eventTerms and locationTerms feed SmartTags. They mirror the
// vocabulary a sumo article actually uses.
var (
	rankTerms     = []string{"yokozuna", "ozeki", "sekiwake", "komusubi", "maegashira"}
	locationTerms = map[string]string{
		"tokyo": "tokyo", "osaka": "osaka", "nagoya": "nagoya",
		"kyushu": "kyushu", "london": "london", "noto": "noto-peninsula",
	}
	contentTerms = []string{"interview", "schedule", "banzuke", "highlights", "results"}
)

// SmartTags derives tags from article text by pattern matching. It is the
// tagging path that works without a model; entity names from the model are
// appended when available. Capped at 15 tags.
func SmartTags(title, content string, entities []string) []string {
	text := strings.ToLower(title + " " + content)
	var out []string
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if len(tag) < 2 {
			return
		}
		for _, existing := range out {
			if existing == tag {
				return
			}
		}
		out = append(out, tag)
	}

	if strings.Contains(text, "basho") || strings.Contains(text, "tournament") {
		switch {
		case strings.Contains(text, "september"):
			add("september-basho")
		case strings.Contains(text, "autumn"):
			add("autumn-tournament")
		default:
			add("tournament")
		}
	}
	for _, rank := range rankTerms {
		if strings.Contains(text, rank) {
			add(rank)
		}
	}
	for _, pair := range []struct{ pattern, tag string }{
		{"promot", "promotion"},
		{"retire", "retirement"},
		{"injur", "injury"},
		{"charity", "charity"},
	} {
		if strings.Contains(text, pair.pattern) {
			add(pair.tag)
		}
	}
	if strings.Contains(text, "victory") || strings.Contains(text, "win") || strings.Contains(text, "champion") {
		add("victory")
	}
	for pattern, tag := range locationTerms {
		if strings.Contains(text, pattern) {
			add(tag)
		}
	}
	for _, term := range contentTerms {
		if strings.Contains(text, term) {
			add(term)
		}
	}
	for i, entity := range entities {
		if i >= 5 {
			break
		}
		add(entity)
	}
	for _, year := range []string{"2024", "2025", "2026"} {
		if strings.Contains(text, year) {
			add(year)
		}
	}

	if len(out) > 15 {
		out = out[:15]
	}
	return out
}

// Apply tags an article with the union of rule-based smart tags and model
// suggestions. Rule hits carry confidence 1.0; model suggestions keep their
// own score. Returns the number of tags newly attached.
func (m *Manager) Apply(ctx context.Context, articleID int64, title, content string, entities []string, suggestions []ai.TagSuggestion) (int, error) {
	type candidate struct {
		name       string
		confidence float64
	}
	var candidates []candidate
	seen := map[string]bool{}

	for _, name := range SmartTags(title, content, entities) {
		candidates = append(candidates, candidate{name, 1.0})
		seen[name] = true
	}
	for _, s := range suggestions {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		candidates = append(candidates, candidate{name, s.Confidence})
	}

	added := 0
	for _, c := range candidates {
		tagID, err := m.store.GetOrCreateTag(ctx, c.name, AutoCategorize(c.name))
		if err != nil {
			return added, err
		}
		fresh, err := m.store.TagArticle(ctx, articleID, tagID, c.confidence, "ai-system")
		if err != nil {
			return added, err
		}
		if fresh {
			added++
		}
	}
	if added > 0 {
		m.logger.Debug("tagged article",
			zap.Int64("article_id", articleID), zap.Int("tags", added))
	}
	return added, nil
}
