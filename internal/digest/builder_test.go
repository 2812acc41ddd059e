package digest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/ai"
	"github.com/JakeFAU/sumo-news-digest/internal/archive"
	"github.com/JakeFAU/sumo-news-digest/internal/mail"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

type fakeDigestStore struct {
	unprocessed []news.Article
	marked      map[int64]string
	contents    map[int64]string
}

func newFakeDigestStore(items ...news.Article) *fakeDigestStore {
	return &fakeDigestStore{
		unprocessed: items,
		marked:      map[int64]string{},
		contents:    map[int64]string{},
	}
}

func (f *fakeDigestStore) UnprocessedArticles(_ context.Context, limit int) ([]news.Article, error) {
	if limit < len(f.unprocessed) {
		return f.unprocessed[:limit], nil
	}
	return f.unprocessed, nil
}

func (f *fakeDigestStore) MarkProcessed(_ context.Context, ids []int64, summaries []string) error {
	for i, id := range ids {
		f.marked[id] = summaries[i]
	}
	return nil
}

func (f *fakeDigestStore) UpdateContent(_ context.Context, id int64, content, _ string) error {
	f.contents[id] = content
	return nil
}

type fakeSender struct {
	dryRun bool
	sent   []mail.Digest
}

func (f *fakeSender) Send(_ context.Context, d mail.Digest) (mail.SendResult, error) {
	f.sent = append(f.sent, d)
	return mail.SendResult{HTML: "<html/>", Text: "text", DryRun: f.dryRun}, nil
}

func (f *fakeSender) DryRun() bool      { return f.dryRun }
func (f *fakeSender) Recipient() string { return "fan@example.com" }

type fakeArchiveWriter struct {
	written []archive.Email
}

func (f *fakeArchiveWriter) Write(_ context.Context, email archive.Email) (string, error) {
	f.written = append(f.written, email)
	return "file:///archives/email.json", nil
}

type fakeFetcher struct {
	bodies map[string]string
}

func (f *fakeFetcher) FetchContent(_ context.Context, url string) (string, error) {
	return f.bodies[url], nil
}

func newTestBuilder(st *fakeDigestStore, sender *fakeSender, aw *fakeArchiveWriter, fetcher ContentFetcher) *Builder {
	return NewBuilder(BuilderParams{
		Store:    st,
		AI:       ai.NewFallback(),
		Clash:    NewChecker(&fakeArchives{}, ai.NewFallback(), 0, zap.NewNop()),
		Mailer:   sender,
		Archiver: aw,
		Content:  fetcher,
		Logger:   zap.NewNop(),
	})
}

func TestRunNoUnprocessedArticles(t *testing.T) {
	t.Parallel()

	st := newFakeDigestStore()
	sender := &fakeSender{}
	b := newTestBuilder(st, sender, &fakeArchiveWriter{}, nil)

	summary, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Scanned)
	assert.Empty(t, sender.sent)
}

func TestRunSendsAndMarksProcessed(t *testing.T) {
	t.Parallel()

	st := newFakeDigestStore(
		news.Article{ID: 1, Title: "Basho opens", URL: "https://example.com/a", Content: "body"},
		news.Article{ID: 2, Title: "Promotion news", URL: "https://example.com/b", Content: "body"},
	)
	sender := &fakeSender{}
	aw := &fakeArchiveWriter{}
	b := newTestBuilder(st, sender, aw, nil)

	summary, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, ai.DefaultSubject, summary.Subject)
	assert.False(t, summary.DryRun)

	require.Len(t, sender.sent, 1)
	require.Len(t, sender.sent[0].Articles, 2)
	assert.Contains(t, sender.sent[0].Articles[0].Summary, "Basho opens")

	require.Len(t, aw.written, 1)
	assert.Equal(t, "fan@example.com", aw.written[0].Recipient)
	assert.Equal(t, "<html/>", aw.written[0].HTMLContent)

	assert.Len(t, st.marked, 2)
}

func TestRunDryRunSkipsMarking(t *testing.T) {
	t.Parallel()

	st := newFakeDigestStore(news.Article{ID: 1, Title: "story", Content: "body"})
	sender := &fakeSender{dryRun: true}
	b := newTestBuilder(st, sender, &fakeArchiveWriter{}, nil)

	summary, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Len(t, sender.sent, 1)
	assert.Empty(t, st.marked, "dry run leaves articles unprocessed")
}

func TestRunBackfillsMissingContent(t *testing.T) {
	t.Parallel()

	st := newFakeDigestStore(news.Article{ID: 7, Title: "no body yet", URL: "https://example.com/x"})
	fetcher := &fakeFetcher{bodies: map[string]string{"https://example.com/x": "fetched body"}}
	b := newTestBuilder(st, &fakeSender{}, &fakeArchiveWriter{}, fetcher)

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fetched body", st.contents[7])
}

func TestRunMarksClashRejectionsHandled(t *testing.T) {
	t.Parallel()

	st := newFakeDigestStore(news.Article{ID: 1, Title: "already sent", Content: "body"})
	sender := &fakeSender{}
	b := NewBuilder(BuilderParams{
		Store: st,
		AI:    ai.NewFallback(),
		Clash: NewChecker(&fakeArchives{emails: []archive.Email{
			{Articles: []news.Article{{ID: 1}}},
		}}, ai.NewFallback(), 0, zap.NewNop()),
		Mailer:   sender,
		Archiver: &fakeArchiveWriter{},
		Logger:   zap.NewNop(),
	})

	summary, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Sent)
	assert.Equal(t, 1, summary.Rejected)
	assert.Empty(t, sender.sent, "nothing approved, nothing sent")
	assert.Contains(t, st.marked, int64(1), "rejected duplicates stop resurfacing")
}

func TestRunDryRunLeavesClashRejectionsUnprocessed(t *testing.T) {
	t.Parallel()

	st := newFakeDigestStore(news.Article{ID: 1, Title: "already sent", Content: "body"})
	sender := &fakeSender{dryRun: true}
	b := NewBuilder(BuilderParams{
		Store: st,
		AI:    ai.NewFallback(),
		Clash: NewChecker(&fakeArchives{emails: []archive.Email{
			{Articles: []news.Article{{ID: 1}}},
		}}, ai.NewFallback(), 0, zap.NewNop()),
		Mailer:   sender,
		Archiver: &fakeArchiveWriter{},
		Logger:   zap.NewNop(),
	})

	summary, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rejected)
	assert.Empty(t, sender.sent)
	assert.Empty(t, st.marked, "dry run leaves even rejected articles unprocessed")
}
