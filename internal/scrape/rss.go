package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// ParseFeed reads an RSS or Atom feed and returns its entries as articles.
// Feed sources skip the HTML parsers entirely.
func ParseFeed(ctx context.Context, feedURL string) ([]news.Article, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var items []news.Article
	for _, entry := range feed.Items {
		title := strings.TrimSpace(entry.Title)
		if title == "" || entry.Link == "" {
			continue
		}
		date := time.Now().Format("2006-01-02")
		if entry.PublishedParsed != nil {
			date = entry.PublishedParsed.Format("2006-01-02")
		} else if entry.UpdatedParsed != nil {
			date = entry.UpdatedParsed.Format("2006-01-02")
		}
		content := entry.Content
		if content == "" {
			content = entry.Description
		}
		items = append(items, news.Article{
			Title:       title,
			URL:         entry.Link,
			Content:     strings.TrimSpace(content),
			ArticleDate: date,
		})
	}
	return items, nil
}
