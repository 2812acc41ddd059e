// Package ai wraps the language-model API behind a small interface: tweet
// sized summaries, digest subject/intro, embeddings, entity extraction, tag
// generation, and pairwise similarity judgment.
package ai

import (
	"context"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// SimilarityVerdict is the model's answer when asked whether a new article
// retreads one already sent.
type SimilarityVerdict struct {
	IsSimilar bool    `json:"is_similar"`
	Score     float64 `json:"similarity_score"`
	SimilarTo string  `json:"similar_to"`
	Reason    string  `json:"reason"`
}

// TagSuggestion is one model-proposed tag for an article.
type TagSuggestion struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Processor is the model-backed part of the pipeline. The Fallback
// implementation covers runs without an API key.
type Processor interface {
	// Summarize turns one article into a tweet-like summary (280 chars max).
	Summarize(ctx context.Context, article news.Article) (string, error)

	// DigestMeta writes the subject line and intro paragraph for a digest.
	DigestMeta(ctx context.Context, items []news.Article) (news.DigestMeta, error)

	// Embed returns the embedding vector for a text, or nil when embeddings
	// are unavailable.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ExtractEntities pulls named entities and topics out of an article.
	ExtractEntities(ctx context.Context, title, content string) (entities, topics []string, err error)

	// SuggestTags proposes tags with confidence scores.
	SuggestTags(ctx context.Context, title, content string, entities []string) ([]TagSuggestion, error)

	// JudgeSimilarity compares a candidate against previously sent items.
	JudgeSimilarity(ctx context.Context, candidate string, previous []string) (SimilarityVerdict, error)

	// Enabled reports whether a real model backs this processor. Embedding
	// and similarity passes are skipped when false.
	Enabled() bool

	// EmbeddingModel names the model vectors are produced with, for storage
	// alongside the vectors.
	EmbeddingModel() string

	// Close releases the API client.
	Close()
}
