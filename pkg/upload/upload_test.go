package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

const line = `{"type":"user","message":{"role":"user","content":"hi"},"sessionId":"s1"}` + "\n"

const summaryJSON = `{"session_id":"s1","project":null,"duration_minutes":0,"total_turns":1,"total_assistant_turns":0,"token_usage":{"input":0,"output":0,"cache_read":0,"cache_creation":0},"estimated_cost_usd":"0","linter_loops":[],"tool_failures":[],"repeated_sequences":[],"large_reads":[],"permission_events":[],"hook_failures":[],"edit_count":0,"tool_call_count":0,"agent_spawn_count":0}`

func TestClient_CompressionThreshold(t *testing.T) {
	var (
		receivedEncoding string
		receivedBody     []byte
		receivedPath     string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedEncoding = r.Header.Get("Content-Encoding")
		receivedPath = r.URL.Path
		receivedBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(summaryJSON))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", 0)

	t.Run("small transcript not compressed", func(t *testing.T) {
		summary, err := client.Analyze(context.Background(), strings.NewReader(line))
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if receivedPath != "/api/v1/analyze" {
			t.Errorf("path = %s, want /api/v1/analyze", receivedPath)
		}
		if receivedEncoding != "" {
			t.Errorf("Content-Encoding = %q, want none", receivedEncoding)
		}
		if string(receivedBody) != line {
			t.Errorf("body = %q, want the raw transcript", receivedBody)
		}
		if summary.SessionID == nil || *summary.SessionID != "s1" {
			t.Errorf("SessionID = %v, want s1", summary.SessionID)
		}
	})

	t.Run("large transcript compressed with zstd", func(t *testing.T) {
		large := strings.Repeat(line, 50)
		if _, err := client.Analyze(context.Background(), strings.NewReader(large)); err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if receivedEncoding != "zstd" {
			t.Errorf("Content-Encoding = %q, want zstd", receivedEncoding)
		}

		decoder, _ := zstd.NewReader(nil)
		decompressed, err := decoder.DecodeAll(receivedBody, nil)
		if err != nil {
			t.Fatalf("failed to decompress zstd: %v", err)
		}
		if string(decompressed) != large {
			t.Error("decompressed body differs from the transcript")
		}
		if len(receivedBody) >= len(large) {
			t.Errorf("compressed size %d not smaller than %d", len(receivedBody), len(large))
		}
	})
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		is      error
	}{
		{"rate limited", http.StatusTooManyRequests, "Rate limit exceeded.", "rate limited", ErrRateLimited},
		{"api error", http.StatusUnsupportedMediaType, `{"error":"Unsupported Content-Encoding: gzip"}`, "status 415: Unsupported Content-Encoding: gzip", nil},
		{"plain error", http.StatusBadGateway, "upstream down", "status 502: upstream down", nil},
		{"bad json", http.StatusOK, "not json", "failed to parse response", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, 0).Analyze(context.Background(), strings.NewReader(line))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Analyze() error = %v, want containing %q", err, tt.wantErr)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Analyze() error = %v, want %v", err, tt.is)
			}
		})
	}
}
