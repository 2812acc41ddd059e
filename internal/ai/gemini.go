package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/sumo-news-digest/internal/metrics"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
	"github.com/JakeFAU/sumo-news-digest/internal/retry"
)

// GeminiConfig controls the Gemini-backed processor.
type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	MaxRetries     int
	RetryDelay     time.Duration
}

// Gemini implements Processor against the Gemini API.
type Gemini struct {
	client *genai.Client
	cfg    GeminiConfig
	logger *zap.Logger
}

// NewGemini builds a Gemini processor. The API key is required; use
// NewFallback for keyless runs.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai.api_key is required for the gemini processor")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-004"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg, logger: logger}, nil
}

// Enabled always reports true for the real processor.
func (g *Gemini) Enabled() bool { return true }

// EmbeddingModel names the embedding model in use.
func (g *Gemini) EmbeddingModel() string { return g.cfg.EmbeddingModel }

// Close releases the API client.
func (g *Gemini) Close() {
	if g.client != nil {
		_ = g.client.Close()
	}
}

// Summarize turns one article into a tweet-like summary.
func (g *Gemini) Summarize(ctx context.Context, article news.Article) (string, error) {
	prompt := fmt.Sprintf(`Convert this sumo wrestling news into a concise, engaging tweet-like summary (max 280 characters). Make it informative but casual and exciting:

Title: %s
URL: %s
Additional context: %s

Format the response as a single tweet that captures the essence of the news. Include relevant sumo terminology and emojis if appropriate. Make it exciting for sumo fans!`,
		article.Title, article.URL, clampContent(article.Content, 2000))

	text, err := g.generate(ctx, "summarize", prompt, 100, 0.7)
	if err != nil {
		return "", err
	}
	return TruncateTweet(text), nil
}

// DigestMeta asks the model for a subject line and intro paragraph.
func (g *Gemini) DigestMeta(ctx context.Context, items []news.Article) (news.DigestMeta, error) {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s\n   Read more: %s\n\n", i+1, item.Summary, item.URL)
	}
	prompt := fmt.Sprintf(`Create an engaging email subject line and introduction for a sumo wrestling news digest. The email contains %d news items. Make it enthusiastic and appealing to sumo fans.

News items:
%s
Provide:
1. SUBJECT: [compelling subject line under 50 characters]
2. INTRO: [2-3 sentence introduction paragraph]`, len(items), sb.String())

	text, err := g.generate(ctx, "digest_meta", prompt, 150, 0.7)
	if err != nil {
		return news.DigestMeta{}, err
	}
	return ParseDigestMeta(text), nil
}

// Embed returns the embedding vector for a text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	model := g.client.EmbeddingModel(g.cfg.EmbeddingModel)
	var values []float32
	err := g.withRetry(ctx, "embed", func() error {
		resp, err := model.EmbedContent(ctx, genai.Text(clampContent(text, 6000)))
		if err != nil {
			return err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return fmt.Errorf("empty embedding response")
		}
		values = resp.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// ExtractEntities pulls named entities and topics out of an article.
func (g *Gemini) ExtractEntities(ctx context.Context, title, content string) ([]string, []string, error) {
	prompt := fmt.Sprintf(`Extract the key named entities (wrestlers, stables, tournaments, places, organizations) and topics from this sumo wrestling article.

Title: %s
Content: %s

Respond with JSON only:
{"entities": ["..."], "topics": ["..."]}`, title, clampContent(content, 3000))

	text, err := g.generate(ctx, "extract_entities", prompt, 200, 0.2)
	if err != nil {
		return nil, nil, err
	}
	var parsed struct {
		Entities []string `json:"entities"`
		Topics   []string `json:"topics"`
	}
	if err := decodeJSONBlock(text, &parsed); err != nil {
		return nil, nil, err
	}
	return parsed.Entities, parsed.Topics, nil
}

// SuggestTags proposes tags with confidence scores.
func (g *Gemini) SuggestTags(ctx context.Context, title, content string, entities []string) ([]TagSuggestion, error) {
	prompt := fmt.Sprintf(`Suggest up to 10 short lowercase tags for this sumo wrestling article. Favor wrestler names, ranks (yokozuna, ozeki...), tournaments, locations and event types (promotion, retirement, injury, victory).

Title: %s
Content: %s
Known entities: %s

Respond with JSON only:
[{"name": "tag-name", "confidence": 0.0}]`, title, clampContent(content, 3000), strings.Join(entities, ", "))

	text, err := g.generate(ctx, "suggest_tags", prompt, 250, 0.3)
	if err != nil {
		return nil, err
	}
	var suggestions []TagSuggestion
	if err := decodeJSONBlock(text, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// JudgeSimilarity compares a candidate against previously sent items.
func (g *Gemini) JudgeSimilarity(ctx context.Context, candidate string, previous []string) (SimilarityVerdict, error) {
	var prev strings.Builder
	for _, p := range previous {
		fmt.Fprintf(&prev, "- %s\n", p)
	}
	prompt := fmt.Sprintf(`Compare this new sumo wrestling article with previous articles:

NEW ARTICLE: %s

PREVIOUS ARTICLES:
%s
Is this new article similar to any previous ones? Consider:
1. Same event/tournament being covered
2. Same wrestler promotions/news
3. Similar content themes
4. Updates vs original stories

Respond with JSON:
{"is_similar": true, "similarity_score": 0.0, "similar_to": "title of most similar article or null", "reason": "brief explanation"}`,
		clampContent(candidate, 300), prev.String())

	text, err := g.generate(ctx, "judge_similarity", prompt, 150, 0.3)
	if err != nil {
		return SimilarityVerdict{}, err
	}
	var verdict SimilarityVerdict
	if err := decodeJSONBlock(text, &verdict); err != nil {
		return SimilarityVerdict{}, err
	}
	return verdict, nil
}

// generate runs one completion with retries and metrics.
func (g *Gemini) generate(ctx context.Context, op, prompt string, maxTokens int32, temperature float32) (string, error) {
	model := g.client.GenerativeModel(g.cfg.Model)
	model.SetMaxOutputTokens(maxTokens)
	model.SetTemperature(temperature)

	var out string
	err := g.withRetry(ctx, op, func() error {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return err
		}
		text := responseText(resp)
		if text == "" {
			return fmt.Errorf("empty model response")
		}
		out = text
		return nil
	})
	return out, err
}

func (g *Gemini) withRetry(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: g.cfg.MaxRetries,
		Delay:       g.cfg.RetryDelay,
	}, fn)
	status := "ok"
	if err != nil {
		status = "error"
		g.logger.Warn("model call failed", zap.String("op", op), zap.Error(err))
	}
	metrics.ObserveAIRequest(op, status, time.Since(start))
	return err
}

// responseText flattens the first candidate's text parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}
