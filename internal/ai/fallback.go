package ai

import (
	"context"
	"fmt"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// Fallback implements Processor without a model: titles become summaries,
// digests get the canned subject/intro, and every vector-dependent feature
// reports itself unavailable. Keyless runs still produce a digest.
type Fallback struct{}

// NewFallback returns the keyless processor.
func NewFallback() *Fallback { return &Fallback{} }

// Summarize prefixes the title, trimmed to tweet length.
func (f *Fallback) Summarize(_ context.Context, article news.Article) (string, error) {
	return TruncateTweet(fmt.Sprintf("🥋 %s", article.Title)), nil
}

// DigestMeta returns the canned subject and intro.
func (f *Fallback) DigestMeta(_ context.Context, _ []news.Article) (news.DigestMeta, error) {
	return news.DigestMeta{Subject: DefaultSubject, Intro: DefaultIntro}, nil
}

// Embed reports embeddings unavailable.
func (f *Fallback) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, nil
}

// ExtractEntities returns nothing; rule-based tagging still runs.
func (f *Fallback) ExtractEntities(_ context.Context, _, _ string) ([]string, []string, error) {
	return nil, nil, nil
}

// SuggestTags returns nothing; rule-based tagging still runs.
func (f *Fallback) SuggestTags(_ context.Context, _, _ string, _ []string) ([]TagSuggestion, error) {
	return nil, nil
}

// JudgeSimilarity never flags anything; the exact-duplicate check upstream
// still applies.
func (f *Fallback) JudgeSimilarity(_ context.Context, _ string, _ []string) (SimilarityVerdict, error) {
	return SimilarityVerdict{}, nil
}

// Enabled reports no model is available.
func (f *Fallback) Enabled() bool { return false }

// EmbeddingModel returns "" as no vectors are produced.
func (f *Fallback) EmbeddingModel() string { return "" }

// Close is a no-op.
func (f *Fallback) Close() {}
