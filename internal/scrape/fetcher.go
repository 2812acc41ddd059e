// Package scrape collects sumo news headlines from the configured sources:
// colly-backed fetching, per-site goquery parsers, RSS feeds, readability
// content extraction, and an optional headless renderer for script-heavy
// pages.
package scrape

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Fetcher retrieves raw pages.
type Fetcher interface {
	// Fetch returns the response body for a URL. insecure skips TLS
	// verification for sources with broken certificates.
	Fetch(ctx context.Context, rawURL string, insecure bool) ([]byte, error)
}

// CollyFetcher implements Fetcher with the Colly collector.
type CollyFetcher struct {
	base     *colly.Collector
	insecure *colly.Collector
	logger   *zap.Logger
}

// FetcherConfig controls collector behavior.
type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// NewCollyFetcher constructs a configured Colly-based Fetcher. A second
// collector with TLS verification disabled backs the insecure path.
func NewCollyFetcher(cfg FetcherConfig, logger *zap.Logger) *CollyFetcher {
	newCollector := func(skipVerify bool) *colly.Collector {
		c := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
		c.AllowURLRevisit = true
		transport := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        16,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
		if skipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
		}
		c.WithTransport(transport)
		if cfg.Timeout > 0 {
			c.SetRequestTimeout(cfg.Timeout)
		}
		return c
	}
	return &CollyFetcher{
		base:     newCollector(false),
		insecure: newCollector(true),
		logger:   logger,
	}
}

// Fetch retrieves one page.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string, insecure bool) ([]byte, error) {
	parent := f.base
	if insecure {
		parent = f.insecure
	}
	collector := parent.Clone()

	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() { resultCh <- res })
	}

	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{body: append([]byte{}, r.Body...)})
	})
	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(fetchResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return res.body, res.err
	default:
		return nil, errors.New("fetch produced no result")
	}
}

type fetchResult struct {
	body []byte
	err  error
}
