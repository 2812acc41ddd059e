package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewsContent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		href string
		want bool
	}{
		{"keyword in text", "Yokozuna promotion ceremony held in Tokyo", "/news/123", true},
		{"keyword in href only", "Day 15 full coverage here", "/sports/sumo/results", true},
		{"no keywords", "Weather forecast for the weekend", "/weather", false},
		{"too short", "Sumo news", "/sumo", false},
		{"too long", string(make([]byte, 210)), "/sumo", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsNewsContent(tc.text, tc.href))
		})
	}
}

func TestExtractDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2025-09-14", ExtractDate("Results 2025-09-14: Onosato stays perfect"))
	assert.Equal(t, "2025-09-14", ExtractDate("Banzuke released 2025/09/14"))
	assert.Equal(t, "2025-09-14", ExtractDate("posted 09/14/2025"))
	assert.Equal(t, "", ExtractDate("no date in here"))
}

func TestExtractDateUnpadded(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2026-08-05", ExtractDate("Jungyo schedule for 2026/8/5 announced"))
	assert.Equal(t, "2026-08-05", ExtractDate("updated 2026-8-5"))
	assert.Equal(t, "2026-08-05", ExtractDate("posted 8/5/2026"))
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	items := []Article{
		{Title: "Hoshoryu wins the Autumn Basho", Source: "Japan Sumo Association"},
		{Title: "  hoshoryu wins the autumn basho ", Source: "Japan Times Sumo"},
		{Title: "Banzuke announced for Kyushu", Source: "Japan Sumo Association"},
	}

	got := Dedupe(items)
	require.Len(t, got, 2)
	assert.Equal(t, "Japan Sumo Association", got[0].Source)
}

func TestFilterRelevantDropsNavigationAndSorts(t *testing.T) {
	t.Parallel()

	items := []Article{
		{Title: "Subscribe to our sumo newsletter today", ArticleDate: "2025-09-10"},
		{Title: "Onosato promoted to yokozuna after title", ArticleDate: "2025-09-12"},
		{Title: "short title", ArticleDate: "2025-09-13"},
		{Title: "Kirishima withdraws from tournament injured", ArticleDate: "2025-09-14"},
	}

	got := FilterRelevant(items)
	require.Len(t, got, 2)
	assert.Equal(t, "Kirishima withdraws from tournament injured", got[0].Title)
	assert.Equal(t, "Onosato promoted to yokozuna after title", got[1].Title)
}
