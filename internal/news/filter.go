package news

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// newsKeywords gates link text: at least one must appear in the title or the
// href for an anchor to count as sumo news.
var newsKeywords = []string{
	"tournament", "champion", "promotion", "sumo", "wrestler",
	"bout", "winner", "result", "ranking", "ceremony", "yokozuna",
	"ozeki", "sekiwake", "komusubi", "maegashira", "juryo",
}

// excludePatterns knock out navigation chrome that matches the keyword gate
// by accident.
var excludePatterns = []string{
	"home", "contact", "about", "privacy", "terms",
	"site map", "english", "japanese", "menu", "login",
	"subscribe", "newsletter", "advertisement", "cookie",
}

var datePattern = regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})|(\d{1,2}[-/]\d{1,2}[-/]\d{4})`)

// IsNewsContent reports whether link text plus href look like a sumo news
// item rather than site furniture.
func IsNewsContent(text, href string) bool {
	if len(text) <= 10 || len(text) >= 200 {
		return false
	}
	textLower := strings.ToLower(text)
	hrefLower := strings.ToLower(href)
	for _, kw := range newsKeywords {
		if strings.Contains(textLower, kw) || strings.Contains(hrefLower, kw) {
			return true
		}
	}
	return false
}

// ExtractDate pulls the first recognizable date out of free text and
// normalizes it to YYYY-MM-DD. Returns "" when nothing parses.
func ExtractDate(text string) string {
	match := datePattern.FindString(text)
	if match == "" {
		return ""
	}
	// Unpadded layouts accept single-digit months and days; the zero-padded
	// Go layouts are fixed-width and reject them.
	for _, layout := range []string{
		"2006-01-02", "2006/01/02", "01-02-2006", "01/02/2006",
		"2006-1-2", "2006/1/2", "1-2-2006", "1/2/2006",
	} {
		if t, err := time.Parse(layout, match); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// Dedupe drops articles whose normalized title was already seen, keeping the
// first occurrence. Titles are the only stable key across sources that list
// the same story under different URLs.
func Dedupe(items []Article) []Article {
	seen := make(map[string]struct{}, len(items))
	out := make([]Article, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Title))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// FilterRelevant removes navigation noise and enforces title-length bounds,
// then sorts newest-first (date, then source for a stable order).
func FilterRelevant(items []Article) []Article {
	out := make([]Article, 0, len(items))
	for _, item := range items {
		titleLower := strings.ToLower(item.Title)
		if len(item.Title) <= 15 || len(item.Title) >= 200 {
			continue
		}
		excluded := false
		for _, pat := range excludePatterns {
			if strings.Contains(titleLower, pat) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ArticleDate != out[j].ArticleDate {
			return out[i].ArticleDate > out[j].ArticleDate
		}
		return out[i].Source > out[j].Source
	})
	return out
}
