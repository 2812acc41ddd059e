package digest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/ai"
	"github.com/JakeFAU/sumo-news-digest/internal/archive"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

type fakeArchives struct {
	emails []archive.Email
}

func (f *fakeArchives) ListRecent(_ context.Context, _ time.Duration) ([]archive.Email, error) {
	return f.emails, nil
}

// judgingAI wraps the fallback with a canned similarity verdict.
type judgingAI struct {
	ai.Processor
	verdicts map[string]ai.SimilarityVerdict // keyed by candidate prefix
}

func (j *judgingAI) Enabled() bool { return true }

func (j *judgingAI) JudgeSimilarity(_ context.Context, candidate string, _ []string) (ai.SimilarityVerdict, error) {
	for prefix, v := range j.verdicts {
		if len(candidate) >= len(prefix) && candidate[:len(prefix)] == prefix {
			return v, nil
		}
	}
	return ai.SimilarityVerdict{}, nil
}

func TestFilterPassesEverythingWithNoHistory(t *testing.T) {
	t.Parallel()

	c := NewChecker(&fakeArchives{}, ai.NewFallback(), 0, zap.NewNop())
	in := []news.Article{{ID: 1}, {ID: 2}}

	approved, rejected, err := c.Filter(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, approved)
	assert.Empty(t, rejected)
}

func TestFilterDropsExactIDMatches(t *testing.T) {
	t.Parallel()

	archives := &fakeArchives{emails: []archive.Email{
		{Timestamp: time.Now(), Articles: []news.Article{{ID: 1, Title: "sent already"}}},
	}}
	c := NewChecker(archives, ai.NewFallback(), time.Hour, zap.NewNop())

	approved, rejected, err := c.Filter(context.Background(),
		[]news.Article{{ID: 1, Title: "sent already"}, {ID: 2, Title: "new story"}})
	require.NoError(t, err)

	require.Len(t, approved, 1)
	assert.EqualValues(t, 2, approved[0].ID)
	require.Len(t, rejected, 1)
	assert.Equal(t, "already sent", rejected[0].Reason)
}

func TestFilterDropsSemanticRetreads(t *testing.T) {
	t.Parallel()

	archives := &fakeArchives{emails: []archive.Email{
		{Timestamp: time.Now(), Articles: []news.Article{{ID: 1, Title: "Onosato wins", Summary: "title run"}}},
	}}
	proc := &judgingAI{Processor: ai.NewFallback(), verdicts: map[string]ai.SimilarityVerdict{
		"Onosato clinches": {IsSimilar: true, Score: 0.9, SimilarTo: "Onosato wins"},
	}}
	c := NewChecker(archives, proc, time.Hour, zap.NewNop())

	approved, rejected, err := c.Filter(context.Background(), []news.Article{
		{ID: 5, Title: "Onosato clinches the cup"},
		{ID: 6, Title: "Banzuke released"},
	})
	require.NoError(t, err)

	require.Len(t, approved, 1)
	assert.EqualValues(t, 6, approved[0].ID)
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].Reason, "Onosato wins")
}

func TestFilterKeepsBorderlineScores(t *testing.T) {
	t.Parallel()

	archives := &fakeArchives{emails: []archive.Email{
		{Timestamp: time.Now(), Articles: []news.Article{{ID: 1, Title: "old"}}},
	}}
	proc := &judgingAI{Processor: ai.NewFallback(), verdicts: map[string]ai.SimilarityVerdict{
		"borderline": {IsSimilar: true, Score: 0.65, SimilarTo: "old"},
	}}
	c := NewChecker(archives, proc, time.Hour, zap.NewNop())

	approved, rejected, err := c.Filter(context.Background(),
		[]news.Article{{ID: 9, Title: "borderline case"}})
	require.NoError(t, err)
	assert.Len(t, approved, 1)
	assert.Empty(t, rejected)
}

func TestPreviousContentBounded(t *testing.T) {
	t.Parallel()

	many := make([]news.Article, 10)
	for i := range many {
		many[i] = news.Article{ID: int64(i), Title: "t", Summary: "s"}
	}
	emails := []archive.Email{
		{Articles: many}, {Articles: many}, {Articles: many}, {Articles: many},
	}
	assert.Len(t, previousContent(emails), clashEmailLimit*clashArticleLimit)
}
