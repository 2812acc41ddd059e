// Package api exposes the read-only ops HTTP surface: health, metrics, and
// store statistics for checking on the pipeline between digest runs.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/archive"
	"github.com/JakeFAU/sumo-news-digest/internal/metrics"
	"github.com/JakeFAU/sumo-news-digest/internal/news"
)

// readStore is the slice of the store the server exposes.
type readStore interface {
	Stats(ctx context.Context) (news.Stats, error)
	RecentArticles(ctx context.Context, days, limit int) ([]news.Article, error)
	UnprocessedArticles(ctx context.Context, limit int) ([]news.Article, error)
	ArticlesBySource(ctx context.Context, source string, limit int) ([]news.Article, error)
	ArticleExists(ctx context.Context, url string) (bool, error)
	ArticleTags(ctx context.Context, articleID int64) ([]news.Tag, error)
	ArticlesByTag(ctx context.Context, tag string, limit int) ([]news.Article, error)
	Relationships(ctx context.Context, articleID int64, types []string) ([]news.Relationship, error)
	TagStats(ctx context.Context) (news.TagStats, error)
}

// archiveReader lists recently sent digests. Satisfied by *archive.Archiver.
type archiveReader interface {
	ListRecent(ctx context.Context, window time.Duration) ([]archive.Email, error)
}

// Server wires HTTP handlers to the store and archive.
type Server struct {
	router   chi.Router
	store    readStore
	archives archiveReader
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store readStore, archives archiveReader, logger *zap.Logger) *Server {
	s := &Server{store: store, archives: archives, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stats", s.getStats)
		r.Route("/articles", func(r chi.Router) {
			r.Get("/recent", s.getRecentArticles)
			r.Get("/unprocessed", s.getUnprocessedArticles)
			r.Get("/by-source", s.getArticlesBySource)
			r.Get("/lookup", s.lookupArticle)
			r.Route("/{article_id}", func(r chi.Router) {
				r.Get("/tags", s.getArticleTags)
				r.Get("/related", s.getArticleRelated)
			})
		})
		r.Get("/tags/stats", s.getTagStats)
		r.Get("/tags/{tag}/articles", s.getArticlesByTag)
		r.Get("/archives", s.getArchives)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// A store round trip is the readiness signal.
	if _, err := s.store.Stats(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) getRecentArticles(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	limit := queryInt(r, "limit", 50)
	articles, err := s.store.RecentArticles(r.Context(), days, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load articles")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"articles": articles, "count": len(articles)})
}

func (s *Server) getUnprocessedArticles(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	articles, err := s.store.UnprocessedArticles(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load articles")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"articles": articles, "count": len(articles)})
}

func (s *Server) getArticlesBySource(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		s.writeError(w, http.StatusBadRequest, "source query parameter is required")
		return
	}
	limit := queryInt(r, "limit", 50)
	articles, err := s.store.ArticlesBySource(r.Context(), source, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load articles")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"source": source, "articles": articles, "count": len(articles)})
}

func (s *Server) lookupArticle(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	exists, err := s.store.ArticleExists(r.Context(), url)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to look up article")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"url": url, "exists": exists})
}

func (s *Server) getArticlesByTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	limit := queryInt(r, "limit", 50)
	articles, err := s.store.ArticlesByTag(r.Context(), tag, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load articles")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tag": tag, "articles": articles, "count": len(articles)})
}

func (s *Server) getArticleTags(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "article_id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid article id")
		return
	}
	tags, err := s.store.ArticleTags(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load tags")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"article_id": id, "tags": tags})
}

func (s *Server) getArticleRelated(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "article_id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid article id")
		return
	}
	related, err := s.store.Relationships(r.Context(), id, nil)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load relationships")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"article_id": id, "related": related})
}

func (s *Server) getTagStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.TagStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load tag stats")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) getArchives(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	emails, err := s.archives.ListRecent(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load archives")
		return
	}
	// Bodies are large; the listing carries envelopes only.
	for i := range emails {
		emails[i].HTMLContent = ""
		emails[i].TextContent = ""
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"archives": emails, "count": len(emails)})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
