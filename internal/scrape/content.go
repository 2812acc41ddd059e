package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// ContentExtractor pulls the readable body text out of an article page,
// capped at a configured length.
type ContentExtractor struct {
	fetcher Fetcher
	limit   int
	logger  *zap.Logger
}

// NewContentExtractor constructs a ContentExtractor. limit caps the
// extracted text; zero falls back to 1000 characters.
func NewContentExtractor(fetcher Fetcher, limit int, logger *zap.Logger) *ContentExtractor {
	if limit <= 0 {
		limit = 1000
	}
	return &ContentExtractor{fetcher: fetcher, limit: limit, logger: logger}
}

// FetchContent downloads a page and extracts its main text. Readability
// does the heavy lifting; pages it cannot make sense of fall back to a bare
// paragraph scan.
func (e *ContentExtractor) FetchContent(ctx context.Context, rawURL string) (string, error) {
	body, err := e.fetcher.Fetch(ctx, rawURL, false)
	if err != nil {
		return "", fmt.Errorf("fetch article page: %w", err)
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse article url: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return e.clamp(article.TextContent), nil
	}
	if err != nil {
		e.logger.Debug("readability extraction failed, falling back to paragraphs",
			zap.String("url", rawURL), zap.Error(err))
	}
	return e.paragraphFallback(body)
}

// paragraphFallback joins the page's paragraph text.
func (e *ContentExtractor) paragraphFallback(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse article html: %w", err)
	}
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return e.clamp(strings.Join(parts, " ")), nil
}

func (e *ContentExtractor) clamp(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > e.limit {
		return string(runes[:e.limit])
	}
	return text
}
