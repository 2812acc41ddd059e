package similarity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/ai"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
	"github.com/JakeFAU/sumo-news-digest/internal/store"
)

func TestCosine(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, Cosine([]float32{1, 0, 1}, []float32{1, 0, 1}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, Cosine(nil, []float32{1}))
	assert.Zero(t, Cosine([]float32{1, 2}, []float32{1}))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{0, 0}))
}

type fakeVectorStore struct {
	byHash        map[string]news.Article
	recent        []news.EmbeddingRecord
	unembedded    []news.Article
	saved         []int64
	relationships []struct {
		source, target int64
		relType        string
		confidence     float64
	}
}

func (f *fakeVectorStore) SaveEmbeddings(_ context.Context, id int64, _, _ []float32, _ string, _, _ []string) error {
	f.saved = append(f.saved, id)
	return nil
}

func (f *fakeVectorStore) ArticlesWithoutEmbeddings(_ context.Context, limit int) ([]news.Article, error) {
	if limit < len(f.unembedded) {
		return f.unembedded[:limit], nil
	}
	return f.unembedded, nil
}

func (f *fakeVectorStore) RecentEmbeddings(_ context.Context, _, _ int) ([]news.EmbeddingRecord, error) {
	return f.recent, nil
}

func (f *fakeVectorStore) FindByContentHash(_ context.Context, hash string) (news.Article, error) {
	if a, ok := f.byHash[hash]; ok {
		return a, nil
	}
	return news.Article{}, store.ErrNotFound
}

func (f *fakeVectorStore) AddRelationship(_ context.Context, source, target int64, relType string, confidence float64) error {
	f.relationships = append(f.relationships, struct {
		source, target int64
		relType        string
		confidence     float64
	}{source, target, relType, confidence})
	return nil
}

// fixedEmbedder returns a canned vector for every text.
type fixedEmbedder struct {
	ai.Processor // embeds Fallback for the unused methods
	vec          []float32
}

func newFixedEmbedder(vec []float32) *fixedEmbedder {
	return &fixedEmbedder{Processor: ai.NewFallback(), vec: vec}
}

func (f *fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, nil
}

func (f *fixedEmbedder) Enabled() bool { return true }

func (f *fixedEmbedder) EmbeddingModel() string { return "test-embedding" }

func TestAnalyzeFlagsExactContentDuplicate(t *testing.T) {
	t.Parallel()

	st := &fakeVectorStore{byHash: map[string]news.Article{
		"abc": {ID: 1, Title: "original"},
	}}
	a := New(st, ai.NewFallback(), 0.8, 30, zap.NewNop())

	res, err := a.Analyze(context.Background(), news.Article{ID: 2, ContentHash: "abc"})
	require.NoError(t, err)
	assert.True(t, res.IsDuplicate)
	assert.EqualValues(t, 1, res.DuplicateOf)

	require.Len(t, st.relationships, 1)
	assert.Equal(t, news.RelationReference, st.relationships[0].relType)
	assert.EqualValues(t, 1, st.relationships[0].target)
}

func TestAnalyzeEmbedsContentDuplicates(t *testing.T) {
	t.Parallel()

	st := &fakeVectorStore{byHash: map[string]news.Article{
		"abc": {ID: 1, Title: "original"},
	}}
	a := New(st, newFixedEmbedder([]float32{1, 0}), 0.8, 30, zap.NewNop())

	res, err := a.Analyze(context.Background(), news.Article{ID: 2, Title: "copy", Content: "body", ContentHash: "abc"})
	require.NoError(t, err)
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, []int64{2}, st.saved, "duplicates still get embeddings so backfill moves past them")
}

func TestBackfillDoesNotStallOnContentDuplicates(t *testing.T) {
	t.Parallel()

	st := &fakeVectorStore{
		byHash: map[string]news.Article{
			"abc": {ID: 1, Title: "original"},
		},
		unembedded: []news.Article{
			{ID: 2, Title: "copy", Content: "body", ContentHash: "abc"},
			{ID: 3, Title: "fresh", Content: "other body"},
		},
	}
	a := New(st, newFixedEmbedder([]float32{1, 0}), 0.8, 30, zap.NewNop())

	done, err := a.Backfill(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, done)
	assert.ElementsMatch(t, []int64{2, 3}, st.saved, "duplicate rows leave the backfill set")
}

func TestAnalyzeSkipsVectorPassWithoutModel(t *testing.T) {
	t.Parallel()

	st := &fakeVectorStore{byHash: map[string]news.Article{}}
	a := New(st, ai.NewFallback(), 0.8, 30, zap.NewNop())

	res, err := a.Analyze(context.Background(), news.Article{ID: 5, ContentHash: "xyz", Title: "t"})
	require.NoError(t, err)
	assert.False(t, res.IsDuplicate)
	assert.Empty(t, st.saved)
}

func TestAnalyzeRecordsRelationshipsAndSemanticDuplicates(t *testing.T) {
	t.Parallel()

	st := &fakeVectorStore{
		byHash: map[string]news.Article{},
		recent: []news.EmbeddingRecord{
			{ArticleID: 1, Title: "same story", Embedding: []float32{1, 0}},
			{ArticleID: 2, Title: "unrelated", Embedding: []float32{0, 1}},
			{ArticleID: 9, Title: "self", Embedding: []float32{1, 0}},
		},
	}
	a := New(st, newFixedEmbedder([]float32{1, 0}), 0.8, 30, zap.NewNop())

	res, err := a.Analyze(context.Background(), news.Article{ID: 9, Title: "same story again", Content: "body"})
	require.NoError(t, err)

	assert.True(t, res.IsDuplicate)
	assert.EqualValues(t, 1, res.DuplicateOf)
	require.Len(t, res.Matches, 1, "self and orthogonal vectors excluded")
	assert.EqualValues(t, 1, res.Matches[0].ArticleID)

	require.Len(t, st.relationships, 1)
	assert.Equal(t, news.RelationUpdate, st.relationships[0].relType)
	assert.Equal(t, []int64{9}, st.saved)
}

type recordingTagger struct {
	articleIDs []int64
	entities   [][]string
}

func (r *recordingTagger) Apply(_ context.Context, articleID int64, _, _ string, entities []string, _ []ai.TagSuggestion) (int, error) {
	r.articleIDs = append(r.articleIDs, articleID)
	r.entities = append(r.entities, entities)
	return len(entities), nil
}

func TestAnalyzeAppliesTagsWhenTaggerWired(t *testing.T) {
	t.Parallel()

	st := &fakeVectorStore{byHash: map[string]news.Article{}}
	tagger := &recordingTagger{}
	a := New(st, newFixedEmbedder([]float32{1, 0}), 0.8, 30, zap.NewNop()).WithTagger(tagger)

	_, err := a.Analyze(context.Background(), news.Article{ID: 7, Title: "Hakuho wins", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, tagger.articleIDs)
}

func TestBackfillNeedsModel(t *testing.T) {
	t.Parallel()

	a := New(&fakeVectorStore{}, ai.NewFallback(), 0.8, 30, zap.NewNop())
	_, err := a.Backfill(context.Background(), 10)
	assert.Error(t, err)
}

func TestBackfillProcessesUnembedded(t *testing.T) {
	t.Parallel()

	st := &fakeVectorStore{
		byHash: map[string]news.Article{},
		unembedded: []news.Article{
			{ID: 3, Title: "one", Content: "body one"},
			{ID: 4, Title: "two", Content: "body two"},
		},
	}
	a := New(st, newFixedEmbedder([]float32{0.5, 0.5}), 0.8, 30, zap.NewNop())

	done, err := a.Backfill(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, done)
	assert.ElementsMatch(t, []int64{3, 4}, st.saved)
}
