package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/ai"
	"github.com/JakeFAU/sumo-news-digest/internal/archive"
	"github.com/JakeFAU/sumo-news-digest/internal/hash"
	"github.com/JakeFAU/sumo-news-digest/internal/mail"
	"github.com/JakeFAU/sumo-news-digest/internal/metrics"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
	"github.com/JakeFAU/sumo-news-digest/internal/store"
	"github.com/JakeFAU/sumo-news-digest/internal/tips"
)

// digestStore is the slice of the store the builder needs.
type digestStore interface {
	UnprocessedArticles(ctx context.Context, limit int) ([]news.Article, error)
	MarkProcessed(ctx context.Context, ids []int64, summaries []string) error
	UpdateContent(ctx context.Context, id int64, content, contentHash string) error
}

// ContentFetcher backfills article bodies before summarization.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// sender delivers one rendered digest. Satisfied by *mail.Mailer.
type sender interface {
	Send(ctx context.Context, d mail.Digest) (mail.SendResult, error)
	DryRun() bool
	Recipient() string
}

// archiveWriter persists one sent digest. Satisfied by *archive.Archiver.
type archiveWriter interface {
	Write(ctx context.Context, email archive.Email) (string, error)
}

// Summary reports what one digest run did.
type Summary struct {
	Scanned    int
	Sent       int
	Rejected   int
	Subject    string
	DryRun     bool
	ArchiveURI string
}

// Builder runs the end-to-end digest pipeline.
type Builder struct {
	store        digestStore
	ai           ai.Processor
	tips         *tips.Manager
	clash        *Checker
	mailer       sender
	archiver     archiveWriter
	content      ContentFetcher // nil skips the content backfill
	maxArticles  int
	aiDelay      time.Duration // pause between model calls
	contentDelay time.Duration // pause between content fetches
	logger       *zap.Logger
}

// BuilderParams collects the builder's dependencies.
type BuilderParams struct {
	Store        digestStore
	AI           ai.Processor
	Tips         *tips.Manager
	Clash        *Checker
	Mailer       sender
	Archiver     archiveWriter
	Content      ContentFetcher
	MaxArticles  int
	AIDelay      time.Duration
	ContentDelay time.Duration
	Logger       *zap.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(p BuilderParams) *Builder {
	if p.MaxArticles <= 0 {
		p.MaxArticles = 10
	}
	return &Builder{
		store:        p.Store,
		ai:           p.AI,
		tips:         p.Tips,
		clash:        p.Clash,
		mailer:       p.Mailer,
		archiver:     p.Archiver,
		content:      p.Content,
		maxArticles:  p.MaxArticles,
		aiDelay:      p.AIDelay,
		contentDelay: p.ContentDelay,
		logger:       p.Logger,
	}
}

// Run assembles and sends one digest: select unprocessed articles, backfill
// content, summarize, drop clashes with recent emails, pick a tip, render,
// deliver, archive, and mark everything handled. A run with no unprocessed
// articles is a no-op.
func (b *Builder) Run(ctx context.Context) (Summary, error) {
	items, err := b.store.UnprocessedArticles(ctx, b.maxArticles)
	if err != nil {
		return Summary{}, fmt.Errorf("load unprocessed articles: %w", err)
	}
	summary := Summary{Scanned: len(items), DryRun: b.mailer.DryRun()}
	if len(items) == 0 {
		b.logger.Info("no unprocessed articles, skipping digest")
		return summary, nil
	}

	if err := b.backfillContent(ctx, items); err != nil {
		return summary, err
	}
	if err := b.summarize(ctx, items); err != nil {
		return summary, err
	}

	approved, rejected, err := b.clash.Filter(ctx, items)
	if err != nil {
		return summary, err
	}
	summary.Rejected = len(rejected)
	if len(approved) == 0 {
		b.logger.Info("all candidates rejected by clash check, skipping digest",
			zap.Int("rejected", len(rejected)))
		if b.mailer.DryRun() {
			return summary, nil
		}
		// Rejected duplicates are still marked handled so they stop
		// resurfacing on every run.
		return summary, b.markHandled(ctx, nil, rejected)
	}

	meta, err := b.ai.DigestMeta(ctx, approved)
	if err != nil {
		b.logger.Warn("digest meta generation failed, using defaults", zap.Error(err))
		meta = news.DigestMeta{Subject: ai.DefaultSubject, Intro: ai.DefaultIntro}
	}
	summary.Subject = meta.Subject

	var tip *news.Tip
	if b.tips != nil {
		picked, err := b.tips.Next(ctx, "")
		switch {
		case err == nil:
			tip = &picked
		case errors.Is(err, store.ErrNotFound):
			b.logger.Debug("no tip available for digest")
		default:
			b.logger.Warn("tip selection failed", zap.Error(err))
		}
	}

	res, err := b.mailer.Send(ctx, mail.Digest{
		Subject:  meta.Subject,
		Intro:    meta.Intro,
		Articles: approved,
		Tip:      tip,
	})
	if err != nil {
		metrics.ObserveDigest("failed", len(approved))
		return summary, fmt.Errorf("deliver digest: %w", err)
	}
	summary.Sent = len(approved)

	uri, err := b.archiver.Write(ctx, archive.Email{
		Subject:     meta.Subject,
		Intro:       meta.Intro,
		Recipient:   b.mailer.Recipient(),
		Articles:    approved,
		HTMLContent: res.HTML,
		TextContent: res.Text,
	})
	if err != nil {
		b.logger.Warn("failed to archive digest", zap.Error(err))
	}
	summary.ArchiveURI = uri

	if res.DryRun {
		metrics.ObserveDigest("dry_run", len(approved))
		return summary, nil
	}
	metrics.ObserveDigest("sent", len(approved))
	return summary, b.markHandled(ctx, approved, rejected)
}

// backfillContent fetches bodies for articles that arrived without one,
// pausing between requests.
func (b *Builder) backfillContent(ctx context.Context, items []news.Article) error {
	if b.content == nil {
		return nil
	}
	for i := range items {
		if items[i].Content != "" {
			continue
		}
		body, err := b.content.FetchContent(ctx, items[i].URL)
		if err != nil {
			b.logger.Warn("content fetch failed",
				zap.String("url", items[i].URL), zap.Error(err))
			continue
		}
		if body == "" {
			continue
		}
		items[i].Content = body
		items[i].ContentHash = hash.Content(body)
		if err := b.store.UpdateContent(ctx, items[i].ID, body, items[i].ContentHash); err != nil {
			return fmt.Errorf("store article content: %w", err)
		}
		if err := b.pause(ctx, b.contentDelay); err != nil {
			return err
		}
	}
	return nil
}

// summarize fills in tweet-sized summaries, falling back to a truncated
// title when the model call fails.
func (b *Builder) summarize(ctx context.Context, items []news.Article) error {
	for i := range items {
		s, err := b.ai.Summarize(ctx, items[i])
		if err != nil {
			b.logger.Warn("summarization failed, using title",
				zap.Int64("article_id", items[i].ID), zap.Error(err))
			s = ai.TruncateTweet("🥋 " + items[i].Title)
		}
		items[i].Summary = s
		if i < len(items)-1 {
			if err := b.pause(ctx, b.aiDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// markHandled records summaries and flips the processed flag for everything
// the run consumed, sent or rejected.
func (b *Builder) markHandled(ctx context.Context, sent []news.Article, rejected []Rejection) error {
	var ids []int64
	var summaries []string
	for _, a := range sent {
		ids = append(ids, a.ID)
		summaries = append(summaries, a.Summary)
	}
	for _, r := range rejected {
		ids = append(ids, r.Article.ID)
		summaries = append(summaries, r.Article.Summary)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := b.store.MarkProcessed(ctx, ids, summaries); err != nil {
		return fmt.Errorf("mark articles processed: %w", err)
	}
	return nil
}

func (b *Builder) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
