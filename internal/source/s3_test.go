package source

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/santaclaude2025/session-improver/pkg/config"
)

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"s3://transcripts/2025/01/abc.jsonl", "transcripts", "2025/01/abc.jsonl", false},
		{"s3://transcripts/abc.jsonl.zst", "transcripts", "abc.jsonl.zst", false},
		{"s3://transcripts", "", "", true},
		{"s3://transcripts/", "", "", true},
		{"s3:///key", "", "", true},
		{"/local/path.jsonl", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseS3URI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.wantBucket || key != tt.wantKey {
				t.Errorf("ParseS3URI() = %q, %q, want %q, %q", bucket, key, tt.wantBucket, tt.wantKey)
			}
		})
	}
}

func TestNewS3Source_RequiresEndpoint(t *testing.T) {
	if _, err := NewS3Source(config.StorageConfig{}); err == nil {
		t.Error("expected error without an endpoint")
	}
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		substrs  []string
		expected bool
	}{
		{"contains first", "connection refused", []string{"connection", "timeout"}, true},
		{"contains second", "request timeout", []string{"connection", "timeout"}, true},
		{"contains none", "success", []string{"connection", "timeout"}, false},
		{"empty string", "", []string{"connection"}, false},
		{"empty substrs", "connection", []string{}, false},
		{"case sensitive - no match", "TIMEOUT", []string{"timeout"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsAny(tt.s, tt.substrs); got != tt.expected {
				t.Errorf("containsAny(%q, %v) = %v, want %v", tt.s, tt.substrs, got, tt.expected)
			}
		})
	}
}

func TestClassifyStorageError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"nil error", nil, nil},
		{"NoSuchKey", minio.ErrorResponse{Code: "NoSuchKey"}, ErrObjectNotFound},
		{"NoSuchBucket", minio.ErrorResponse{Code: "NoSuchBucket"}, ErrObjectNotFound},
		{"AccessDenied", minio.ErrorResponse{Code: "AccessDenied"}, ErrAccessDenied},
		{"InvalidAccessKeyId", minio.ErrorResponse{Code: "InvalidAccessKeyId"}, ErrAccessDenied},
		{"SignatureDoesNotMatch", minio.ErrorResponse{Code: "SignatureDoesNotMatch"}, ErrAccessDenied},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrNetworkError},
		{"timeout", errors.New("context deadline exceeded: timeout"), ErrNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStorageError(tt.err, "download")
			if tt.expected == nil {
				if err != nil {
					t.Errorf("classifyStorageError() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				t.Errorf("classifyStorageError() = %v, want wrapping %v", err, tt.expected)
			}
		})
	}

	t.Run("unknown error is wrapped", func(t *testing.T) {
		original := errors.New("something odd")
		err := classifyStorageError(original, "download")
		if !errors.Is(err, original) {
			t.Errorf("classifyStorageError() = %v, want wrapping original", err)
		}
		for _, sentinel := range []error{ErrObjectNotFound, ErrAccessDenied, ErrNetworkError} {
			if errors.Is(err, sentinel) {
				t.Errorf("unknown error classified as %v", sentinel)
			}
		}
	})
}
