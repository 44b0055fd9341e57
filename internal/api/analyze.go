package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/santaclaude2025/session-improver/internal/analytics"
	"github.com/santaclaude2025/session-improver/internal/logger"
	"github.com/santaclaude2025/session-improver/internal/source"
	"github.com/santaclaude2025/session-improver/pkg/config"
)

// handleAnalyze computes the summary of the JSONL transcript in the body.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	// Also caps the decoded size of compressed bodies.
	body := http.MaxBytesReader(w, r.Body, config.MaxUploadSize)

	summary, err := analytics.ComputeFromReader(r.Context(), body, s.opts)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Transcript exceeds upload limit")
			return
		}
		log.Warn("failed to analyze transcript", "error", err)
		respondError(w, http.StatusBadRequest, "Failed to read transcript")
		return
	}

	log.Info("transcript analyzed",
		"session_id", stringOrEmpty(summary.SessionID),
		"tool_calls", summary.ToolCallCount,
		"findings", summary.HasFindings())
	respondJSON(w, http.StatusOK, summary)
}

// AnalyzeObjectRequest names a transcript in object storage.
type AnalyzeObjectRequest struct {
	URI string `json:"uri"`
}

// handleAnalyzeObject computes the summary of an s3://bucket/key transcript.
func (s *Server) handleAnalyzeObject(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	if s.objects == nil {
		respondError(w, http.StatusServiceUnavailable, "Object storage is not configured")
		return
	}

	var req AnalyzeObjectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*config.KB)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, _, err := source.ParseS3URI(strings.TrimSpace(req.URI)); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rc, err := s.objects.Open(r.Context(), strings.TrimSpace(req.URI))
	if err != nil {
		switch {
		case errors.Is(err, source.ErrObjectNotFound):
			respondError(w, http.StatusNotFound, "Transcript not found")
		case errors.Is(err, source.ErrAccessDenied):
			respondError(w, http.StatusForbidden, "Access denied")
		case errors.Is(err, source.ErrObjectTooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "Transcript exceeds upload limit")
		case errors.Is(err, source.ErrUnsupportedEncoding):
			respondError(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			log.Error("failed to download transcript", "uri", req.URI, "error", err)
			respondError(w, http.StatusBadGateway, "Failed to download transcript")
		}
		return
	}
	body := source.LimitReadCloser(rc, s.maxObjectSize)
	defer body.Close()

	summary, err := analytics.ComputeFromReader(r.Context(), body, s.opts)
	if err != nil {
		if errors.Is(err, source.ErrObjectTooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Transcript exceeds upload limit")
			return
		}
		log.Error("failed to analyze transcript", "uri", req.URI, "error", err)
		respondError(w, http.StatusUnprocessableEntity, "Failed to read transcript")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
