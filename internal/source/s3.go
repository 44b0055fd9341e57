package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/santaclaude2025/session-improver/pkg/config"
)

var tracer = otel.Tracer("session-improver/source")

// s3Scheme prefixes object storage identifiers: s3://bucket/key
const s3Scheme = "s3://"

// IsRemote reports whether identifier names an object storage transcript.
func IsRemote(identifier string) bool {
	return strings.HasPrefix(identifier, s3Scheme)
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsRemote(uri) {
		return "", "", fmt.Errorf("not an s3 URI: %q", uri)
	}
	bucket, key, _ = strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 URI must be s3://bucket/key, got %q", uri)
	}
	return bucket, key, nil
}

// S3Source reads transcripts from S3/MinIO
type S3Source struct {
	client  *minio.Client
	maxSize int64
}

// NewS3Source creates a new S3/MinIO client. Buckets are named per request.
func NewS3Source(cfg config.StorageConfig) (*S3Source, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("S3 endpoint is not configured (set S3_ENDPOINT or storage.endpoint)")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &S3Source{client: client, maxSize: config.MaxUploadSize}, nil
}

// Download retrieves an object from S3/MinIO
func (s *S3Source) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "source.download",
		trace.WithAttributes(
			attribute.String("storage.bucket", bucket),
			attribute.String("storage.key", key),
		))
	defer span.End()

	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, classifyStorageError(err, "download")
	}
	defer object.Close()

	data, err := io.ReadAll(io.LimitReader(object, s.maxSize+1))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, classifyStorageError(err, "download")
	}
	if int64(len(data)) > s.maxSize {
		err := fmt.Errorf("download: %w: exceeds %d bytes", ErrObjectTooLarge, s.maxSize)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("file.size", len(data)))
	return data, nil
}

// Open downloads the transcript at an s3:// URI and decompresses it
// according to the key's extension. Both the stored object and the
// decompressed stream are capped at config.MaxUploadSize.
func (s *S3Source) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	data, err := s.Download(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	rc, err := Decompress(bytes.NewReader(data), EncodingForPath(key))
	if err != nil {
		return nil, err
	}
	return LimitReadCloser(rc, s.maxSize), nil
}

// classifyStorageError examines a storage error and returns an appropriate sentinel error
func classifyStorageError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch minioErr.Code {
		case "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("%s: %w", operation, ErrObjectNotFound)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%s: %w", operation, ErrAccessDenied)
		}
	}

	if containsAny(err.Error(), []string{"connection", "timeout", "network", "dial", "refused"}) {
		return fmt.Errorf("%s network issue: %w", operation, ErrNetworkError)
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
