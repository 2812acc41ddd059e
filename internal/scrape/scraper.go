package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/config"
	"github.com/JakeFAU/sumo-news-digest/internal/hash"
	"github.com/JakeFAU/sumo-news-digest/internal/metrics"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// articleSaver is the slice of the store the scraper needs.
type articleSaver interface {
	SaveArticles(ctx context.Context, articles []news.Article) (int, error)
}

// pageRenderer is satisfied by *Renderer. nil disables JS rendering.
type pageRenderer interface {
	Render(ctx context.Context, rawURL string) ([]byte, error)
}

// Scraper walks the configured sources, harvests headlines, and saves the
// survivors.
type Scraper struct {
	fetcher  Fetcher
	renderer pageRenderer
	store    articleSaver
	sources  []config.SourceConfig
	delay    time.Duration // pause between sources
	logger   *zap.Logger
}

// ScraperParams collects the scraper's dependencies.
type ScraperParams struct {
	Fetcher  Fetcher
	Renderer pageRenderer
	Store    articleSaver
	Sources  []config.SourceConfig
	Delay    time.Duration
	Logger   *zap.Logger
}

// NewScraper constructs a Scraper.
func NewScraper(p ScraperParams) *Scraper {
	return &Scraper{
		fetcher:  p.Fetcher,
		renderer: p.Renderer,
		store:    p.Store,
		sources:  p.Sources,
		delay:    p.Delay,
		logger:   p.Logger,
	}
}

// Result reports what one scrape run found.
type Result struct {
	Found    int // relevant items after dedupe and filtering
	Saved    int // items new to the store
	Articles []news.Article
}

// ScrapeAll fetches every source in order, deduplicates and filters the
// harvest, and saves it. A failing source is logged and skipped; the run
// continues.
func (s *Scraper) ScrapeAll(ctx context.Context) (Result, error) {
	var all []news.Article
	for i, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		items, err := s.scrapeSource(ctx, src)
		if err != nil {
			s.logger.Warn("source scrape failed",
				zap.String("source", src.Name), zap.Error(err))
			continue
		}
		for j := range items {
			items[j].Source = src.Name
			items[j].ScrapedAt = time.Now()
			items[j].URLHash = hash.URL(items[j].URL)
			if items[j].Content != "" {
				items[j].ContentHash = hash.Content(items[j].Content)
			}
		}
		metrics.ObserveScraped(src.Name, len(items))
		s.logger.Info("source scraped",
			zap.String("source", src.Name), zap.Int("items", len(items)))
		all = append(all, items...)

		if i < len(s.sources)-1 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	relevant := news.FilterRelevant(news.Dedupe(all))
	res := Result{Found: len(relevant), Articles: relevant}
	if len(relevant) == 0 {
		s.logger.Info("no relevant news found")
		return res, nil
	}

	saved, err := s.store.SaveArticles(ctx, relevant)
	if err != nil {
		return res, err
	}
	res.Saved = saved
	metrics.ObserveSaved(saved)
	if skipped := len(relevant) - saved; skipped > 0 {
		metrics.ObserveDuplicate("url")
	}
	s.logger.Info("scrape complete",
		zap.Int("found", res.Found), zap.Int("saved", res.Saved))
	return res, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, src config.SourceConfig) ([]news.Article, error) {
	if src.Kind == KindRSS {
		return ParseFeed(ctx, src.URL)
	}

	var body []byte
	var err error
	if src.RenderWithJS && s.renderer != nil {
		body, err = s.renderer.Render(ctx, src.URL)
	} else {
		body, err = s.fetcher.Fetch(ctx, src.URL, src.InsecureTLS)
	}
	if err != nil {
		return nil, err
	}
	return ParseHTML(src.Kind, body, src.URL, src.LinkPrefix)
}
