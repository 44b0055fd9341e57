// Package upload sends transcripts to a remote session-improver server for
// analysis.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/santaclaude2025/session-improver/internal/analytics"
	"github.com/santaclaude2025/session-improver/pkg/config"
)

const (
	// compressionThreshold is the minimum payload size to compress.
	compressionThreshold = 1 * config.KB

	analyzePath = "/api/v1/analyze"
)

// ErrRateLimited is returned when the server answers 429.
var ErrRateLimited = errors.New("rate limited")

// Client posts transcripts to a server started with `session-improver serve`.
type Client struct {
	baseURL    string
	httpClient *http.Client
	encoder    *zstd.Encoder
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	encoder, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		encoder: encoder,
	}
}

// Analyze sends the transcript read from r and returns the server's summary.
// Transcripts of 1KB or more are sent zstd-compressed.
func (c *Client) Analyze(ctx context.Context, r io.Reader) (*analytics.Summary, error) {
	payload, err := io.ReadAll(io.LimitReader(r, config.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	if len(payload) > config.MaxUploadSize {
		return nil, fmt.Errorf("transcript exceeds %d MB upload limit", config.MaxUploadSize/config.MB)
	}

	var contentEncoding string
	if len(payload) >= compressionThreshold {
		payload = c.encoder.EncodeAll(payload, make([]byte, 0, len(payload)/2))
		contentEncoding = "zstd"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	req.Header.Set("Accept", "application/json")
	if contentEncoding != "" {
		req.Header.Set("Content-Encoding", contentEncoding)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyze request failed with status %d: %s", resp.StatusCode, errorMessage(body))
	}

	var summary analytics.Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &summary, nil
}

// errorMessage extracts {"error": "..."} bodies, falling back to the raw text.
func errorMessage(body []byte) string {
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return strings.TrimSpace(string(body))
}
