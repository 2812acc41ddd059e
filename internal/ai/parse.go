package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// Defaults used when the model response cannot be parsed. Matching the
// hand-written fallbacks keeps the digest usable on bad model days.
const (
	DefaultSubject = "Sumo Wrestling News Update"
	DefaultIntro   = "Here are the latest updates from the world of sumo wrestling!"
)

// ParseDigestMeta scans a model response for SUBJECT: and INTRO: lines,
// substituting defaults for anything missing.
func ParseDigestMeta(response string) news.DigestMeta {
	meta := news.DigestMeta{Subject: DefaultSubject, Intro: DefaultIntro}
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		// Tolerate numbered lists ("1. SUBJECT: ...").
		if i := strings.Index(line, "SUBJECT:"); i >= 0 && i < 4 {
			if s := strings.TrimSpace(line[i+len("SUBJECT:"):]); s != "" {
				meta.Subject = strings.Trim(s, `"[]`)
			}
		} else if i := strings.Index(line, "INTRO:"); i >= 0 && i < 4 {
			if s := strings.TrimSpace(line[i+len("INTRO:"):]); s != "" {
				meta.Intro = strings.Trim(s, `"[]`)
			}
		}
	}
	return meta
}

// TruncateTweet enforces the 280-character limit on a summary, cutting on a
// rune boundary.
func TruncateTweet(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= 280 {
		return s
	}
	return string(runes[:277]) + "..."
}

// decodeJSONBlock unmarshals the first JSON object or array in a model
// response, tolerating surrounding prose and markdown fences.
func decodeJSONBlock(response string, v any) error {
	start := strings.IndexAny(response, "{[")
	if start < 0 {
		return fmt.Errorf("no JSON found in response")
	}
	var end int
	if response[start] == '{' {
		end = strings.LastIndex(response, "}")
	} else {
		end = strings.LastIndex(response, "]")
	}
	if end <= start {
		return fmt.Errorf("unterminated JSON in response")
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), v); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}

// clampContent collapses whitespace and truncates article text to keep
// prompts a sane size.
func clampContent(content string, maxRunes int) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	trimmed := string(runes[:maxRunes])
	// Prefer ending on a sentence when one lands late enough.
	if idx := strings.LastIndex(trimmed, ". "); idx > maxRunes/2 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed
}
