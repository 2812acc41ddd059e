// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"
	"time"

	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/ai"
	"github.com/JakeFAU/sumo-news-digest/internal/archive"
	"github.com/JakeFAU/sumo-news-digest/internal/config"
	"github.com/JakeFAU/sumo-news-digest/internal/digest"
	"github.com/JakeFAU/sumo-news-digest/internal/logging"
	"github.com/JakeFAU/sumo-news-digest/internal/mail"
	"github.com/JakeFAU/sumo-news-digest/internal/scrape"
	"github.com/JakeFAU/sumo-news-digest/internal/similarity"
	"github.com/JakeFAU/sumo-news-digest/internal/storage"
	"github.com/JakeFAU/sumo-news-digest/internal/storage/gcs"
	"github.com/JakeFAU/sumo-news-digest/internal/storage/local"
	"github.com/JakeFAU/sumo-news-digest/internal/store"
	"github.com/JakeFAU/sumo-news-digest/internal/tags"
	"github.com/JakeFAU/sumo-news-digest/internal/tips"
)

// App holds the shared, long-lived services: the store, the model
// processor, blob storage, and the managers built on top of them. It is
// initialized once at startup and handed to the commands.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    store.Store
	ai       ai.Processor
	blobs    storage.Provider
	archiver *archive.Archiver
	tips     *tips.Manager
	tags     *tags.Manager
	analyzer *similarity.Analyzer
	fetcher  *scrape.CollyFetcher
	renderer *scrape.Renderer
	gcsCli   *gstorage.Client
}

// New builds the service container. It fails fast when a critical service
// cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.L
	a := &App{cfg: cfg, logger: logger}

	pg, err := store.NewPostgres(ctx, store.Config{DSN: cfg.DB.DSN, MaxConns: cfg.DB.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.store = pg

	if cfg.AI.APIKey != "" {
		proc, err := ai.NewGemini(ctx, ai.GeminiConfig{
			APIKey:         cfg.AI.APIKey,
			Model:          cfg.AI.Model,
			EmbeddingModel: cfg.AI.EmbeddingModel,
			MaxRetries:     cfg.AI.MaxRetries,
			RetryDelay:     cfg.AIRequestDelay(),
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initialize model client: %w", err)
		}
		a.ai = proc
		logger.Info("model processor enabled", zap.String("model", cfg.AI.Model))
	} else {
		a.ai = ai.NewFallback()
		logger.Info("no model API key set, using basic summaries")
	}

	blobs, err := a.newBlobProvider(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.blobs = blobs
	a.archiver = archive.New(blobs, logger)

	a.fetcher = scrape.NewCollyFetcher(scrape.FetcherConfig{
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	}, logger)

	a.tips = tips.New(a.store, daysToDuration(cfg.Digest.TipRotationDays), logger)
	a.tags = tags.New(a.store, logger)
	a.analyzer = similarity.New(a.store, a.ai, cfg.AI.SimilarityThreshold, 30, logger).
		WithTagger(a.tags)
	return a, nil
}

func (a *App) newBlobProvider(ctx context.Context) (storage.Provider, error) {
	switch a.cfg.Archive.Provider {
	case "local", "":
		baseDir := a.cfg.Archive.BaseDir
		if baseDir == "" {
			baseDir = "archives"
		}
		a.logger.Info("using local archive storage", zap.String("dir", baseDir))
		blobs, err := local.New(local.Config{BaseDir: baseDir})
		if err != nil {
			return nil, fmt.Errorf("initialize local archive storage: %w", err)
		}
		return blobs, nil
	case "gcs":
		if a.cfg.Archive.GCSBucket == "" {
			return nil, fmt.Errorf("archive provider is 'gcs' but archive.gcs_bucket is not set")
		}
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize gcs client: %w", err)
		}
		a.gcsCli = client
		a.logger.Info("using gcs archive storage", zap.String("bucket", a.cfg.Archive.GCSBucket))
		blobs, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Archive.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("initialize gcs archive storage: %w", err)
		}
		return blobs, nil
	case "noop":
		a.logger.Info("archive storage disabled, digests will not be archived")
		return &storage.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", a.cfg.Archive.Provider)
	}
}

// Close releases connections. Safe on a partially constructed App.
func (a *App) Close() {
	if a.ai != nil {
		a.ai.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.gcsCli != nil {
		_ = a.gcsCli.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Store returns the article store.
func (a *App) Store() store.Store { return a.store }

// AI returns the model processor (a fallback when no key is configured).
func (a *App) AI() ai.Processor { return a.ai }

// Archiver returns the digest archive reader/writer.
func (a *App) Archiver() *archive.Archiver { return a.archiver }

// Tips returns the tip manager.
func (a *App) Tips() *tips.Manager { return a.tips }

// Tags returns the tag manager.
func (a *App) Tags() *tags.Manager { return a.tags }

// Analyzer returns the similarity analyzer.
func (a *App) Analyzer() *similarity.Analyzer { return a.analyzer }

// Scraper assembles the scrape pipeline, starting the headless renderer
// lazily when any source needs it.
func (a *App) Scraper() (*scrape.Scraper, error) {
	var renderer *scrape.Renderer
	for _, src := range a.cfg.Scraper.Sources {
		if src.RenderWithJS {
			r, err := scrape.NewRenderer(a.cfg.Scraper.UserAgent, a.cfg.RequestTimeout(), a.logger)
			if err != nil {
				return nil, fmt.Errorf("start headless renderer: %w", err)
			}
			a.renderer = r
			renderer = r
			break
		}
	}
	params := scrape.ScraperParams{
		Fetcher: a.fetcher,
		Store:   a.store,
		Sources: a.cfg.Scraper.Sources,
		Delay:   a.cfg.SourceDelay(),
		Logger:  a.logger,
	}
	if renderer != nil {
		params.Renderer = renderer
	}
	return scrape.NewScraper(params), nil
}

// Mailer builds the SMTP mailer.
func (a *App) Mailer(dryRun bool) *mail.Mailer {
	return mail.New(a.cfg.Email, dryRun, a.logger)
}

// DigestBuilder assembles the full digest pipeline.
func (a *App) DigestBuilder(dryRun bool) *digest.Builder {
	checker := digest.NewChecker(a.archiver, a.ai,
		daysToDuration(a.cfg.Digest.ClashWindowDays), a.logger)
	extractor := scrape.NewContentExtractor(a.fetcher, a.cfg.Scraper.ContentLimit, a.logger)
	return digest.NewBuilder(digest.BuilderParams{
		Store:        a.store,
		AI:           a.ai,
		Tips:         a.tips,
		Clash:        checker,
		Mailer:       a.Mailer(dryRun),
		Archiver:     a.archiver,
		Content:      extractor,
		MaxArticles:  a.cfg.Digest.MaxArticles,
		AIDelay:      a.cfg.AIRequestDelay(),
		ContentDelay: a.cfg.ContentDelay(),
		Logger:       a.logger,
	})
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
