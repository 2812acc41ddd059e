package tips

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
	"github.com/JakeFAU/sumo-news-digest/internal/store"
)

type fakeTipStore struct {
	tips   []news.Tip
	seeded int
	used   []int64
}

func (f *fakeTipStore) SeedTips(_ context.Context, tips []news.Tip) (int, error) {
	if len(f.tips) > 0 {
		return 0, nil
	}
	f.tips = tips
	f.seeded = len(tips)
	return len(tips), nil
}

func (f *fakeTipStore) UnusedTip(_ context.Context, category string, _ time.Duration) (news.Tip, error) {
	for _, tip := range f.tips {
		if category == "" || tip.Category == category {
			return tip, nil
		}
	}
	return news.Tip{}, store.ErrNotFound
}

func (f *fakeTipStore) MarkTipUsed(_ context.Context, id int64) error {
	f.used = append(f.used, id)
	return nil
}

func TestSeedOnlyOnce(t *testing.T) {
	t.Parallel()

	st := &fakeTipStore{}
	m := New(st, 0, zap.NewNop())

	require.NoError(t, m.Seed(context.Background()))
	assert.Equal(t, len(seedCorpus), st.seeded)
	require.NoError(t, m.Seed(context.Background()))
	assert.Equal(t, len(seedCorpus), len(st.tips))
}

func TestNextMarksTipUsed(t *testing.T) {
	t.Parallel()

	st := &fakeTipStore{tips: []news.Tip{{ID: 42, Title: "The Sacred Dohyo", Category: "traditions"}}}
	m := New(st, time.Hour, zap.NewNop())

	tip, err := m.Next(context.Background(), "")
	require.NoError(t, err)
	assert.EqualValues(t, 42, tip.ID)
	assert.Equal(t, []int64{42}, st.used)
}

func TestNextFiltersByCategory(t *testing.T) {
	t.Parallel()

	st := &fakeTipStore{tips: []news.Tip{
		{ID: 1, Category: "history"},
		{ID: 2, Category: "culture"},
	}}
	m := New(st, time.Hour, zap.NewNop())

	tip, err := m.Next(context.Background(), "culture")
	require.NoError(t, err)
	assert.EqualValues(t, 2, tip.ID)
}

func TestNextEmptyStore(t *testing.T) {
	t.Parallel()

	m := New(&fakeTipStore{}, time.Hour, zap.NewNop())
	_, err := m.Next(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSeedCorpusShape(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, seedCorpus)
	for _, tip := range seedCorpus {
		assert.NotEmpty(t, tip.Title)
		assert.NotEmpty(t, tip.Content)
		assert.NotEmpty(t, tip.Category)
	}
}
