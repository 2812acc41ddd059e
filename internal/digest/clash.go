// Package digest assembles and sends the periodic email: article selection,
// summarization, clash checking against previously sent digests, tip
// rotation, delivery, and archiving.
package digest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/ai"
	"github.com/JakeFAU/sumo-news-digest/internal/archive"
	"github.com/JakeFAU/sumo-news-digest/internal/metrics"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// semanticClashThreshold is the model similarity score above which a
// candidate is dropped as a retread of an already-sent story.
const semanticClashThreshold = 0.7

// Limits on how much history the semantic pass feeds the model.
const (
	clashEmailLimit   = 3 // most recent emails considered
	clashArticleLimit = 5 // top articles per email
)

// archiveLister is the slice of the archiver the checker needs.
type archiveLister interface {
	ListRecent(ctx context.Context, window time.Duration) ([]archive.Email, error)
}

// Rejection records one article dropped by the clash check.
type Rejection struct {
	Article news.Article
	Reason  string
	Score   float64
}

// Checker filters digest candidates against recently sent emails: exact
// article-ID matches first, then a model similarity pass.
type Checker struct {
	archives archiveLister
	ai       ai.Processor
	window   time.Duration
	logger   *zap.Logger
}

// NewChecker constructs a Checker. window bounds how far back sent digests
// are compared; zero falls back to 7 days.
func NewChecker(archives archiveLister, proc ai.Processor, window time.Duration, logger *zap.Logger) *Checker {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return &Checker{archives: archives, ai: proc, window: window, logger: logger}
}

// Filter returns the articles safe to send and those rejected as clashes.
func (c *Checker) Filter(ctx context.Context, candidates []news.Article) ([]news.Article, []Rejection, error) {
	if len(candidates) == 0 {
		return nil, nil, nil
	}
	recent, err := c.archives.ListRecent(ctx, c.window)
	if err != nil {
		return nil, nil, fmt.Errorf("load recent archives: %w", err)
	}
	if len(recent) == 0 {
		return candidates, nil, nil
	}

	sentIDs := archive.ArticleIDs(recent)
	var approved []news.Article
	var rejected []Rejection
	for _, a := range candidates {
		if sentIDs[a.ID] {
			metrics.ObserveDuplicate("archive")
			rejected = append(rejected, Rejection{Article: a, Reason: "already sent", Score: 1})
			continue
		}
		approved = append(approved, a)
	}

	if !c.ai.Enabled() || len(approved) == 0 {
		c.logRejections(rejected)
		return approved, rejected, nil
	}

	previous := previousContent(recent)
	if len(previous) == 0 {
		return approved, rejected, nil
	}

	var cleared []news.Article
	for _, a := range approved {
		candidate := a.Title
		if a.Summary != "" {
			candidate = a.Title + " - " + a.Summary
		}
		verdict, err := c.ai.JudgeSimilarity(ctx, candidate, previous)
		if err != nil {
			// A failed judgment keeps the article rather than losing news.
			c.logger.Warn("similarity judgment failed",
				zap.Int64("article_id", a.ID), zap.Error(err))
			cleared = append(cleared, a)
			continue
		}
		if verdict.IsSimilar && verdict.Score > semanticClashThreshold {
			metrics.ObserveDuplicate("semantic")
			rejected = append(rejected, Rejection{
				Article: a,
				Reason:  "similar to " + verdict.SimilarTo,
				Score:   verdict.Score,
			})
			continue
		}
		cleared = append(cleared, a)
	}
	c.logRejections(rejected)
	return cleared, rejected, nil
}

// previousContent flattens recent archives into "title - summary" strings
// for the model, newest emails first.
func previousContent(recent []archive.Email) []string {
	var previous []string
	for i, email := range recent {
		if i >= clashEmailLimit {
			break
		}
		for j, a := range email.Articles {
			if j >= clashArticleLimit {
				break
			}
			previous = append(previous, a.Title+" - "+a.Summary)
		}
	}
	return previous
}

func (c *Checker) logRejections(rejected []Rejection) {
	for _, r := range rejected {
		c.logger.Info("article rejected by clash check",
			zap.Int64("article_id", r.Article.ID),
			zap.String("title", r.Article.Title),
			zap.String("reason", r.Reason))
	}
}
