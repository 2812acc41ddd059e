package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

const jsaPage = `<!DOCTYPE html>
<html><body>
<a href="/En/news/2026/tournament-results">September Tournament Results Announced</a>
<a href="/En/about">About</a>
<div class="what-new-list">
  <a href="/En/news/2026/yokozuna-ceremony">Yokozuna ring-entering ceremony held at Meiji Shrine</a>
</div>
<a href="https://example.com/unrelated">Click here</a>
</body></html>`

func TestParseJSA(t *testing.T) {
	t.Parallel()

	items, err := ParseHTML(KindJSA, []byte(jsaPage), "https://www.sumo.or.jp/En/", "")
	require.NoError(t, err)
	require.NotEmpty(t, items)

	titles := map[string]string{}
	for _, a := range items {
		titles[a.Title] = a.URL
	}
	assert.Contains(t, titles, "September Tournament Results Announced")
	assert.Equal(t, "https://www.sumo.or.jp/En/news/2026/tournament-results",
		titles["September Tournament Results Announced"])
	assert.Contains(t, titles, "Yokozuna ring-entering ceremony held at Meiji Shrine")
	assert.NotContains(t, titles, "About")
	assert.NotContains(t, titles, "Click here")
}

const japanTimesPage = `<!DOCTYPE html>
<html><body>
<article class="story-card">
  <h2 class="article-title"><a href="/sports/sumo/2026/08/20/onosato-title/">Onosato clinches back-to-back titles at autumn basho</a></h2>
  <span class="post-date">2026/08/20</span>
</article>
<div class="headline-block">
  <h3>Short</h3>
  <a href="/sports/sumo/2026/08/21/x/">x</a>
</div>
<a href="/sports/sumo/2026/08/22/injury-report/">Veteran ozeki withdraws from tournament with knee injury</a>
<a href="/sports/rugby/2026/08/22/rugby/">Rugby team wins championship match decisively today</a>
</body></html>`

func TestParseJapanTimes(t *testing.T) {
	t.Parallel()

	items, err := ParseHTML(KindJapanTimes, []byte(japanTimesPage),
		"https://www.japantimes.co.jp/sports/sumo/", "/sports/sumo/")
	require.NoError(t, err)

	// Both passes can harvest the same headline; first occurrence wins, as
	// in the pipeline.
	items = news.Dedupe(items)
	titles := map[string]string{}
	for _, a := range items {
		titles[a.Title] = a.ArticleDate
	}
	require.Contains(t, titles, "Onosato clinches back-to-back titles at autumn basho")
	assert.Equal(t, "2026-08-20", titles["Onosato clinches back-to-back titles at autumn basho"])
	assert.Contains(t, titles, "Veteran ozeki withdraws from tournament with knee injury")
	// Headline too short for the block pass, link text too short for the
	// fallback pass.
	assert.NotContains(t, titles, "Short")
	// Wrong section prefix.
	assert.NotContains(t, titles, "Rugby team wins championship match decisively today")
}

const genericPage = `<!DOCTYPE html>
<html><body>
<a href="news/world-championship.html">World Sumo Championship results from London announced</a>
<div class="main-content">
  <a href="events/2026.html">International amateur competition schedule for next season</a>
  <a href="x.html">tiny</a>
</div>
</body></html>`

func TestParseGeneric(t *testing.T) {
	t.Parallel()

	items, err := ParseHTML(KindGeneric, []byte(genericPage), "http://www.ifs-sumo.org/", "")
	require.NoError(t, err)

	titles := map[string]string{}
	for _, a := range items {
		titles[a.Title] = a.URL
	}
	assert.Contains(t, titles, "World Sumo Championship results from London announced")
	assert.Equal(t, "http://www.ifs-sumo.org/news/world-championship.html",
		titles["World Sumo Championship results from London announced"])
	assert.Contains(t, titles, "International amateur competition schedule for next season")
	assert.NotContains(t, titles, "tiny")
}

func TestParseHTMLUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := ParseHTML("mystery", []byte("<html></html>"), "https://example.com/", "")
	assert.Error(t, err)
}

func TestResolveURLVariants(t *testing.T) {
	t.Parallel()

	items, err := ParseHTML(KindJSA, []byte(
		`<a href="https://elsewhere.example/full">Tournament champion crowned in dramatic playoff bout</a>`),
		"https://www.sumo.or.jp/En/", "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://elsewhere.example/full", items[0].URL)
}
