package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// Source kinds understood by the scraper.
const (
	KindJSA        = "jsa"
	KindJapanTimes = "japantimes"
	KindGeneric    = "generic"
	KindRSS        = "rss"
)

var (
	newsSectionClass   = regexp.MustCompile(`news|what-new`)
	articleBlockClass  = regexp.MustCompile(`article|post|story|headline`)
	titleClass         = regexp.MustCompile(`title|headline|head`)
	dateClass          = regexp.MustCompile(`date|time`)
	contentAreaClass   = regexp.MustCompile(`content|news|main|post`)
	japanTimesKeywords = []string{"sumo", "wrestler", "tournament", "basho", "yokozuna", "ozeki"}
)

// ParseHTML routes a fetched page through the parser for its source kind.
func ParseHTML(kind string, body []byte, pageURL, linkPrefix string) ([]news.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	switch kind {
	case KindJSA:
		return parseJSA(doc, base), nil
	case KindJapanTimes:
		return parseJapanTimes(doc, base, linkPrefix), nil
	case KindGeneric:
		return parseGeneric(doc, base), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
}

// parseJSA walks the Japan Sumo Association homepage: keyword-matched links
// anywhere on the page plus links inside news sections.
func parseJSA(doc *goquery.Document, base *url.URL) []news.Article {
	var items []news.Article

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		if text != "" && news.IsNewsContent(text, href) {
			items = append(items, linkArticle(text, href, base))
		}
	})

	doc.Find("div, section").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		if !newsSectionClass.MatchString(class) {
			return
		}
		link := s.Find("a[href]").First()
		if link.Length() == 0 {
			return
		}
		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = strings.TrimSpace(s.Text())
		}
		if title == "" {
			return
		}
		href, _ := link.Attr("href")
		items = append(items, linkArticle(title, href, base))
	})

	return items
}

// parseJapanTimes walks article/headline blocks, then harvests bare section
// links matching the prefix as a fallback.
func parseJapanTimes(doc *goquery.Document, base *url.URL, linkPrefix string) []news.Article {
	var items []news.Article

	doc.Find("article, div").Each(func(_ int, block *goquery.Selection) {
		class, _ := block.Attr("class")
		if !articleBlockClass.MatchString(class) {
			return
		}
		title := block.Find("h1, h2, h3, h4").FilterFunction(func(_ int, h *goquery.Selection) bool {
			c, _ := h.Attr("class")
			return titleClass.MatchString(c)
		}).First()
		if title.Length() == 0 {
			title = block.Find("h1, h2, h3, h4").First()
		}
		if title.Length() == 0 {
			return
		}
		link := title.Find("a[href]").First()
		if link.Length() == 0 {
			link = block.Find("a[href]").First()
		}
		if link.Length() == 0 {
			return
		}
		text := strings.TrimSpace(title.Text())
		if len(text) <= 10 {
			return
		}
		date := time.Now().Format("2006-01-02")
		block.Find("time, span").EachWithBreak(func(_ int, d *goquery.Selection) bool {
			c, _ := d.Attr("class")
			if !dateClass.MatchString(c) {
				return true
			}
			if extracted := news.ExtractDate(strings.TrimSpace(d.Text())); extracted != "" {
				date = extracted
				return false
			}
			return true
		})
		href, _ := link.Attr("href")
		a := linkArticle(text, href, base)
		a.ArticleDate = date
		items = append(items, a)
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if linkPrefix == "" || !strings.Contains(href, linkPrefix) || href == base.String() {
			return
		}
		text := strings.TrimSpace(s.Text())
		if len(text) <= 20 || len(text) >= 200 {
			return
		}
		lower := strings.ToLower(text)
		for _, kw := range japanTimesKeywords {
			if strings.Contains(lower, kw) {
				items = append(items, linkArticle(text, href, base))
				return
			}
		}
	})

	return items
}

// parseGeneric handles simply structured sites: keyword-matched links plus
// anything inside obvious content areas.
func parseGeneric(doc *goquery.Document, base *url.URL) []news.Article {
	var items []news.Article

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		if text != "" && news.IsNewsContent(text, href) {
			items = append(items, linkArticle(text, href, base))
		}
	})

	doc.Find("div, section, article").Each(func(_ int, area *goquery.Selection) {
		class, _ := area.Attr("class")
		if !contentAreaClass.MatchString(class) {
			return
		}
		area.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) <= 15 || len(text) >= 200 {
				return
			}
			href, _ := s.Attr("href")
			items = append(items, linkArticle(text, href, base))
		})
	})

	return items
}

// linkArticle builds an article from a harvested link, resolving relative
// hrefs against the page URL and pulling a date out of the text when one is
// embedded.
func linkArticle(title, href string, base *url.URL) news.Article {
	date := news.ExtractDate(title)
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return news.Article{
		Title:       title,
		URL:         resolveURL(href, base),
		ArticleDate: date,
	}
}

func resolveURL(href string, base *url.URL) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
