// Package metrics exposes Prometheus collectors for the digest pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	articlesScrapedTotal *prometheus.CounterVec
	articlesSavedTotal   prometheus.Counter
	duplicatesTotal      *prometheus.CounterVec
	aiRequestsTotal      *prometheus.CounterVec
	aiRequestSeconds     *prometheus.HistogramVec
	digestsSentTotal     *prometheus.CounterVec
	digestArticles       prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		articlesScrapedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sumonews_articles_scraped_total",
				Help: "Total articles harvested from index pages, labeled by source.",
			},
			[]string{"source"},
		)

		articlesSavedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sumonews_articles_saved_total",
				Help: "Total new articles persisted to the store.",
			},
		)

		duplicatesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sumonews_duplicates_total",
				Help: "Total rejected duplicates, labeled by detection kind (url, content, semantic, archive).",
			},
			[]string{"kind"},
		)

		aiRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sumonews_ai_requests_total",
				Help: "Total model API calls, labeled by operation and status.",
			},
			[]string{"op", "status"},
		)

		aiRequestSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sumonews_ai_request_duration_seconds",
				Help:    "Histogram of model API call latencies, labeled by operation.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"op"},
		)

		digestsSentTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sumonews_digests_sent_total",
				Help: "Total digest emails sent, labeled by outcome.",
			},
			[]string{"status"},
		)

		digestArticles = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sumonews_digest_articles",
				Help:    "Number of articles included per sent digest.",
				Buckets: []float64{1, 2, 3, 5, 8, 10, 15},
			},
		)
	})
}

// ObserveScraped counts harvested articles for a source.
func ObserveScraped(source string, n int) {
	if articlesScrapedTotal != nil {
		articlesScrapedTotal.WithLabelValues(source).Add(float64(n))
	}
}

// ObserveSaved counts newly persisted articles.
func ObserveSaved(n int) {
	if articlesSavedTotal != nil {
		articlesSavedTotal.Add(float64(n))
	}
}

// ObserveDuplicate counts one rejected duplicate by detection kind.
func ObserveDuplicate(kind string) {
	if duplicatesTotal != nil {
		duplicatesTotal.WithLabelValues(kind).Inc()
	}
}

// ObserveAIRequest records one model call with its latency.
func ObserveAIRequest(op, status string, d time.Duration) {
	if aiRequestsTotal != nil {
		aiRequestsTotal.WithLabelValues(op, status).Inc()
	}
	if aiRequestSeconds != nil {
		aiRequestSeconds.WithLabelValues(op).Observe(d.Seconds())
	}
}

// ObserveDigest records one digest send attempt.
func ObserveDigest(status string, articleCount int) {
	if digestsSentTotal != nil {
		digestsSentTotal.WithLabelValues(status).Inc()
	}
	if status == "sent" && digestArticles != nil {
		digestArticles.Observe(float64(articleCount))
	}
}

// Handler returns the Prometheus scrape handler for the ops server.
func Handler() http.Handler {
	return promhttp.Handler()
}
