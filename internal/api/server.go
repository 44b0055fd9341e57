// Package api serves transcript analysis over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/santaclaude2025/session-improver/internal/analytics"
	"github.com/santaclaude2025/session-improver/internal/logger"
	"github.com/santaclaude2025/session-improver/internal/ratelimit"
	"github.com/santaclaude2025/session-improver/pkg/config"
)

// ObjectSource opens transcripts named by s3:// URIs.
type ObjectSource interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Server holds dependencies for API handlers
type Server struct {
	opts    analytics.Options
	cfg     config.ServerConfig
	limiter ratelimit.RateLimiter
	objects ObjectSource

	// maxObjectSize caps the decoded transcript read from object storage.
	maxObjectSize int64
}

// NewServer creates a new API server. objects may be nil when no object
// storage is configured; the S3 route then answers 503.
func NewServer(opts analytics.Options, cfg config.ServerConfig, limiter ratelimit.RateLimiter, objects ObjectSource) *Server {
	return &Server{
		opts:          opts,
		cfg:           cfg,
		limiter:       limiter,
		objects:       objects,
		maxObjectSize: config.MaxUploadSize,
	}
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Encoding", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)

	r.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(ratelimit.Middleware(s.limiter))
		}

		r.With(limitBody(config.MaxUploadSize), decompressMiddleware()).
			Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/s3", s.handleAnalyzeObject)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "session-improver",
		"version": "v1",
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	enc.Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
