package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/santaclaude2025/session-improver/internal/analytics"
	"github.com/santaclaude2025/session-improver/internal/logger"
	"github.com/santaclaude2025/session-improver/internal/ratelimit"
	"github.com/santaclaude2025/session-improver/internal/source"
	"github.com/santaclaude2025/session-improver/pkg/config"
)

const transcript = `{"type":"user","message":{"role":"user","content":"fix it"},"timestamp":"2025-01-01T00:00:00Z","sessionId":"api-session","cwd":"/repo"}
{"type":"assistant","message":{"model":"claude-sonnet-4","usage":{"input_tokens":10,"output_tokens":5},"content":[{"type":"tool_use","id":"t1","name":"Read","input":{"file_path":"main.go"}}]},"timestamp":"2025-01-01T00:01:00Z"}
`

func newTestServer(t *testing.T, limiter ratelimit.RateLimiter) http.Handler {
	t.Helper()
	restore := logger.SetOutputForTest(io.Discard)
	t.Cleanup(restore)

	cfg := config.Default().Server
	return NewServer(analytics.DefaultOptions(), cfg, limiter, nil).SetupRoutes()
}

func post(t *testing.T, h http.Handler, path string, body []byte, encoding string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/x-ndjson")
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSummary(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status": "ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAnalyze(t *testing.T) {
	h := newTestServer(t, nil)
	rec := post(t, h, "/api/v1/analyze", []byte(transcript), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}
	out := decodeSummary(t, rec)
	if out["session_id"] != "api-session" {
		t.Errorf("session_id = %v, want api-session", out["session_id"])
	}
	if out["tool_call_count"] != float64(1) {
		t.Errorf("tool_call_count = %v, want 1", out["tool_call_count"])
	}
}

func TestAnalyze_CompressedBodies(t *testing.T) {
	var zbuf bytes.Buffer
	enc, _ := zstd.NewWriter(&zbuf)
	enc.Write([]byte(transcript))
	enc.Close()

	var bbuf bytes.Buffer
	bw := brotli.NewWriter(&bbuf)
	bw.Write([]byte(transcript))
	bw.Close()

	plain := post(t, newTestServer(t, nil), "/api/v1/analyze", []byte(transcript), "")

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"zstd", "zstd", zbuf.Bytes()},
		{"brotli", "br", bbuf.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestServer(t, nil), "/api/v1/analyze", tt.body, tt.encoding)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
			if rec.Body.String() != plain.Body.String() {
				t.Errorf("compressed summary differs from plain:\n%s\nvs\n%s", rec.Body.String(), plain.Body.String())
			}
		})
	}
}

func TestAnalyze_UnsupportedEncoding(t *testing.T) {
	rec := post(t, newTestServer(t, nil), "/api/v1/analyze", []byte(transcript), "gzip")
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unsupported Content-Encoding: gzip") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAnalyze_CorruptCompressedBody(t *testing.T) {
	rec := post(t, newTestServer(t, nil), "/api/v1/analyze", []byte("definitely not zstd"), "zstd")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyze_EmptyBody(t *testing.T) {
	rec := post(t, newTestServer(t, nil), "/api/v1/analyze", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	out := decodeSummary(t, rec)
	if out["session_id"] != nil {
		t.Errorf("session_id = %v, want null", out["session_id"])
	}
	if loops, ok := out["linter_loops"].([]interface{}); !ok || len(loops) != 0 {
		t.Errorf("linter_loops = %v, want []", out["linter_loops"])
	}
}

func TestAnalyze_RateLimited(t *testing.T) {
	limiter := ratelimit.NewInMemoryRateLimiter(0.001, 1)
	defer limiter.Stop()
	h := newTestServer(t, limiter)

	if rec := post(t, h, "/api/v1/analyze", []byte(transcript), ""); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", rec.Code)
	}
	if rec := post(t, h, "/api/v1/analyze", []byte(transcript), ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", rec.Code)
	}

	// Health checks are not rate limited.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestAnalyzeObject_NotConfigured(t *testing.T) {
	rec := post(t, newTestServer(t, nil), "/api/v1/analyze/s3", []byte(`{"uri":"s3://b/k.jsonl"}`), "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// memoryObjects serves object contents from a map.
type memoryObjects map[string]string

func (m memoryObjects) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	content, ok := m[uri]
	if !ok {
		return nil, fmt.Errorf("download: %w", source.ErrObjectNotFound)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// failingObjects returns err from every Open.
type failingObjects struct{ err error }

func (f failingObjects) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	return nil, f.err
}

func newObjectServer(t *testing.T, objects ObjectSource, maxObjectSize int64) http.Handler {
	t.Helper()
	restore := logger.SetOutputForTest(io.Discard)
	t.Cleanup(restore)

	srv := NewServer(analytics.DefaultOptions(), config.Default().Server, nil, objects)
	if maxObjectSize > 0 {
		srv.maxObjectSize = maxObjectSize
	}
	return srv.SetupRoutes()
}

func TestAnalyzeObject(t *testing.T) {
	objects := memoryObjects{
		"s3://transcripts/small.jsonl": transcript,
		"s3://transcripts/huge.jsonl":  strings.Repeat(transcript, 200),
	}

	tests := []struct {
		name       string
		objects    ObjectSource
		body       string
		wantStatus int
	}{
		{"analyzed", objects, `{"uri":"s3://transcripts/small.jsonl"}`, http.StatusOK},
		{"decoded stream over limit", objects, `{"uri":"s3://transcripts/huge.jsonl"}`, http.StatusRequestEntityTooLarge},
		{"missing object", objects, `{"uri":"s3://transcripts/nope.jsonl"}`, http.StatusNotFound},
		{"stored object over limit", failingObjects{fmt.Errorf("download: %w", source.ErrObjectTooLarge)}, `{"uri":"s3://b/k.jsonl"}`, http.StatusRequestEntityTooLarge},
		{"access denied", failingObjects{fmt.Errorf("download: %w", source.ErrAccessDenied)}, `{"uri":"s3://b/k.jsonl"}`, http.StatusForbidden},
		{"storage unreachable", failingObjects{fmt.Errorf("download: %w", source.ErrNetworkError)}, `{"uri":"s3://b/k.jsonl"}`, http.StatusBadGateway},
		{"not an s3 uri", objects, `{"uri":"/etc/passwd"}`, http.StatusBadRequest},
		{"invalid body", objects, `{"uri":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newObjectServer(t, tt.objects, int64(len(transcript)*10))
			rec := post(t, h, "/api/v1/analyze/s3", []byte(tt.body), "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if got := decodeSummary(t, rec)["session_id"]; got != "api-session" {
					t.Errorf("session_id = %v, want api-session", got)
				}
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin = %q", got)
	}
}
