// Package archive persists a copy of every digest email sent, and reads
// recent archives back for the clash checker. Archives are JSON plus a
// standalone HTML rendering, stored through the blob provider.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
	"github.com/JakeFAU/sumo-news-digest/internal/storage"
)

// prefix is the blob path prefix all email archives live under.
const prefix = "emails/"

// Email is one archived digest.
type Email struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Subject      string         `json:"subject"`
	Intro        string         `json:"intro"`
	Recipient    string         `json:"recipient"`
	ArticleCount int            `json:"article_count"`
	Articles     []news.Article `json:"articles"`
	HTMLContent  string         `json:"html_content,omitempty"`
	TextContent  string         `json:"text_content,omitempty"`
}

// Archiver writes and reads digest archives.
type Archiver struct {
	blobs  storage.Provider
	logger *zap.Logger
}

// New constructs an Archiver.
func New(blobs storage.Provider, logger *zap.Logger) *Archiver {
	return &Archiver{blobs: blobs, logger: logger}
}

// Write stores one sent digest as email_<timestamp>.json plus a viewable
// .html sibling. Returns the JSON blob's URI.
func (a *Archiver) Write(ctx context.Context, email Email) (string, error) {
	if email.ID == "" {
		email.ID = uuid.NewString()
	}
	if email.Timestamp.IsZero() {
		email.Timestamp = time.Now()
	}
	email.ArticleCount = len(email.Articles)

	stamp := email.Timestamp.Format("20060102_150405")
	base := prefix + "email_" + stamp

	data, err := json.MarshalIndent(email, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}
	uri, err := a.blobs.PutObject(ctx, base+".json", "application/json", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("store archive: %w", err)
	}
	if email.HTMLContent != "" {
		if _, err := a.blobs.PutObject(ctx, base+".html", "text/html; charset=utf-8", strings.NewReader(email.HTMLContent)); err != nil {
			// The JSON record is the one the clash checker needs; a failed
			// HTML sibling is only worth a warning.
			a.logger.Warn("failed to store html archive", zap.String("path", base+".html"), zap.Error(err))
		}
	}
	a.logger.Info("email archived", zap.String("uri", uri), zap.Int("articles", email.ArticleCount))
	return uri, nil
}

// ListRecent returns archives no older than the window, newest first.
// Unreadable archives are skipped with a warning.
func (a *Archiver) ListRecent(ctx context.Context, window time.Duration) ([]Email, error) {
	paths, err := a.blobs.ListObjects(ctx, prefix+"email_")
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	cutoff := time.Now().Add(-window)

	var emails []Email
	for _, path := range paths {
		if !strings.HasSuffix(path, ".json") {
			continue
		}
		data, err := a.blobs.GetObject(ctx, path)
		if err != nil {
			a.logger.Warn("failed to read archive", zap.String("path", path), zap.Error(err))
			continue
		}
		var email Email
		if err := json.Unmarshal(data, &email); err != nil {
			a.logger.Warn("malformed archive", zap.String("path", path), zap.Error(err))
			continue
		}
		if email.Timestamp.Before(cutoff) {
			continue
		}
		emails = append(emails, email)
	}
	sort.Slice(emails, func(i, j int) bool { return emails[i].Timestamp.After(emails[j].Timestamp) })
	return emails, nil
}

// ArticleIDs collects every article ID mentioned across the given archives.
func ArticleIDs(emails []Email) map[int64]bool {
	ids := map[int64]bool{}
	for _, email := range emails {
		for _, article := range email.Articles {
			if article.ID != 0 {
				ids[article.ID] = true
			}
		}
	}
	return ids
}
