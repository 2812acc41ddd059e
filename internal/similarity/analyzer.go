// Package similarity finds duplicate and related articles: exact matches by
// content hash, near matches by cosine distance over stored embeddings.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/ai"
	"github.com/JakeFAU/sumo-news-digest/internal/metrics"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
	"github.com/JakeFAU/sumo-news-digest/internal/store"
)

// duplicateThreshold marks a cosine score above which two articles count as
// the same story. relationFloor is the minimum confidence worth recording as
// a relationship.
const (
	duplicateThreshold = 0.95
	relationFloor      = 0.6
)

// vectorStore is the slice of the store the analyzer needs.
type vectorStore interface {
	SaveEmbeddings(ctx context.Context, articleID int64, content, title []float32, model string, entities, topics []string) error
	ArticlesWithoutEmbeddings(ctx context.Context, limit int) ([]news.Article, error)
	RecentEmbeddings(ctx context.Context, days, limit int) ([]news.EmbeddingRecord, error)
	FindByContentHash(ctx context.Context, hash string) (news.Article, error)
	AddRelationship(ctx context.Context, sourceID, targetID int64, relType string, confidence float64) error
}

// tagApplier writes tags for an analyzed article. Satisfied by
// *tags.Manager; nil disables tagging.
type tagApplier interface {
	Apply(ctx context.Context, articleID int64, title, content string, entities []string, suggestions []ai.TagSuggestion) (int, error)
}

// Match is one nearest-neighbor hit.
type Match struct {
	ArticleID int64
	Title     string
	Score     float64
}

// Result summarizes one analysis pass over an article.
type Result struct {
	IsDuplicate bool
	DuplicateOf int64
	Matches     []Match
	Entities    []string
	Topics      []string
}

// Analyzer runs the duplicate and relationship pipeline.
type Analyzer struct {
	store     vectorStore
	ai        ai.Processor
	tagger    tagApplier // nil disables tagging
	threshold float64
	window    int // days of candidates to scan
	logger    *zap.Logger
}

// New constructs an Analyzer. threshold is the cosine score above which two
// articles count as similar; window is how many days back the neighbor scan
// reaches.
func New(st vectorStore, proc ai.Processor, threshold float64, window int, logger *zap.Logger) *Analyzer {
	if threshold <= 0 {
		threshold = 0.8
	}
	if window <= 0 {
		window = 30
	}
	return &Analyzer{store: st, ai: proc, threshold: threshold, window: window, logger: logger}
}

// WithTagger enables tag application after each analysis pass.
func (a *Analyzer) WithTagger(t tagApplier) *Analyzer {
	a.tagger = t
	return a
}

// Cosine returns the cosine similarity of two vectors, 0 when either is
// empty or the dimensions disagree.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Analyze runs the full pass over one stored article: exact duplicate check
// by content hash, embedding generation, nearest-neighbor scan, and
// relationship recording. The article must already be saved.
func (a *Analyzer) Analyze(ctx context.Context, article news.Article) (Result, error) {
	var res Result

	if article.ContentHash != "" {
		prior, err := a.store.FindByContentHash(ctx, article.ContentHash)
		switch {
		case err == nil && prior.ID != article.ID:
			metrics.ObserveDuplicate("content")
			a.logger.Info("exact content duplicate",
				zap.Int64("article_id", article.ID),
				zap.Int64("duplicate_of", prior.ID))
			res.IsDuplicate = true
			res.DuplicateOf = prior.ID
			if err := a.store.AddRelationship(ctx, article.ID, prior.ID, news.RelationReference, 1.0); err != nil {
				return res, fmt.Errorf("record duplicate relationship: %w", err)
			}
			// Fall through to the vector pass: the duplicate still gets its
			// embeddings so it leaves the backfill set instead of clogging
			// it forever.
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return res, fmt.Errorf("content hash lookup: %w", err)
		}
	}

	if !a.ai.Enabled() {
		return res, nil
	}

	text := article.Content
	if text == "" {
		text = article.Title
	}
	contentEmb, err := a.ai.Embed(ctx, text)
	if err != nil {
		return res, fmt.Errorf("embed content: %w", err)
	}
	titleEmb, err := a.ai.Embed(ctx, article.Title)
	if err != nil {
		return res, fmt.Errorf("embed title: %w", err)
	}

	entities, topics, err := a.ai.ExtractEntities(ctx, article.Title, article.Content)
	if err != nil {
		// Entity extraction failing should not sink the whole pass.
		a.logger.Warn("entity extraction failed", zap.Int64("article_id", article.ID), zap.Error(err))
	}
	res.Entities = entities
	res.Topics = topics

	matches, err := a.nearestNeighbors(ctx, article.ID, contentEmb)
	if err != nil {
		return res, err
	}
	res.Matches = matches

	if err := a.store.SaveEmbeddings(ctx, article.ID, contentEmb, titleEmb, a.ai.EmbeddingModel(), entities, topics); err != nil {
		return res, fmt.Errorf("save embeddings: %w", err)
	}

	if a.tagger != nil {
		suggestions, err := a.ai.SuggestTags(ctx, article.Title, article.Content, entities)
		if err != nil {
			a.logger.Warn("tag suggestion failed", zap.Int64("article_id", article.ID), zap.Error(err))
		}
		applied, err := a.tagger.Apply(ctx, article.ID, article.Title, article.Content, entities, suggestions)
		if err != nil {
			a.logger.Warn("tag application failed", zap.Int64("article_id", article.ID), zap.Error(err))
		} else if applied > 0 {
			a.logger.Debug("tags applied", zap.Int64("article_id", article.ID), zap.Int("tags", applied))
		}
	}

	for _, m := range matches {
		if m.Score >= duplicateThreshold && !res.IsDuplicate {
			metrics.ObserveDuplicate("semantic")
			res.IsDuplicate = true
			res.DuplicateOf = m.ArticleID
		}
		if m.Score < relationFloor {
			continue
		}
		if err := a.store.AddRelationship(ctx, article.ID, m.ArticleID, relationType(m.Score), m.Score); err != nil {
			return res, fmt.Errorf("record relationship: %w", err)
		}
	}
	if len(matches) > 0 {
		a.logger.Debug("nearest neighbors",
			zap.Int64("article_id", article.ID),
			zap.Int("matches", len(matches)),
			zap.Float64("top_score", matches[0].Score))
	}
	return res, nil
}

// nearestNeighbors scans recent embeddings for vectors past the similarity
// threshold, best first.
func (a *Analyzer) nearestNeighbors(ctx context.Context, selfID int64, vec []float32) ([]Match, error) {
	if len(vec) == 0 {
		return nil, nil
	}
	candidates, err := a.store.RecentEmbeddings(ctx, a.window, 500)
	if err != nil {
		return nil, fmt.Errorf("load candidate embeddings: %w", err)
	}
	var matches []Match
	for _, c := range candidates {
		if c.ArticleID == selfID {
			continue
		}
		score := Cosine(vec, c.Embedding)
		if score >= a.threshold {
			matches = append(matches, Match{ArticleID: c.ArticleID, Title: c.Title, Score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > 10 {
		matches = matches[:10]
	}
	return matches, nil
}

// relationType maps a cosine score to the relationship label stored with it.
func relationType(score float64) string {
	if score >= 0.9 {
		return news.RelationUpdate
	}
	return news.RelationRelated
}

// Backfill generates embeddings for stored articles that predate the vector
// columns. Returns how many articles were processed.
func (a *Analyzer) Backfill(ctx context.Context, limit int) (int, error) {
	if !a.ai.Enabled() {
		return 0, errors.New("embedding backfill needs a model API key")
	}
	articles, err := a.store.ArticlesWithoutEmbeddings(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list articles without embeddings: %w", err)
	}
	done := 0
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := a.Analyze(ctx, article); err != nil {
			a.logger.Warn("backfill failed for article",
				zap.Int64("article_id", article.ID), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}
