// Package source opens transcripts from local files, compressed files and
// S3-compatible object storage.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Sentinel errors for transcript sources
var (
	// ErrObjectNotFound indicates the requested object does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied indicates insufficient permissions for the operation
	ErrAccessDenied = errors.New("access denied")

	// ErrNetworkError indicates a network connectivity issue
	ErrNetworkError = errors.New("network error")

	// ErrUnsupportedEncoding indicates a compression format we cannot read
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrObjectTooLarge indicates a transcript over the size limit, either as
	// stored or once decompressed
	ErrObjectTooLarge = errors.New("object too large")
)

// Content encodings understood by Decompress.
const (
	EncodingIdentity = ""
	EncodingZstd     = "zstd"
	EncodingBrotli   = "br"
)

// EncodingForPath infers the content encoding from a file extension.
func EncodingForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return EncodingZstd
	case ".br":
		return EncodingBrotli
	default:
		return EncodingIdentity
	}
}

// Decompress wraps r in a decoder for encoding. Closing the result releases
// the decoder but not r.
func Decompress(r io.Reader, encoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case EncodingIdentity, "identity":
		return io.NopCloser(r), nil
	case EncodingZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return decoder.IOReadCloser(), nil
	case EncodingBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
	}
}

// LimitReadCloser returns a reader that yields at most max bytes of rc and
// then fails with ErrObjectTooLarge if rc has more. Closing it closes rc.
func LimitReadCloser(rc io.ReadCloser, max int64) io.ReadCloser {
	return &limitedReadCloser{rc: rc, max: max, remaining: max}
}

type limitedReadCloser struct {
	rc        io.ReadCloser
	max       int64
	remaining int64
}

func (l *limitedReadCloser) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, fmt.Errorf("%w: exceeds %d bytes", ErrObjectTooLarge, l.max)
	}
	// One byte past the limit is enough to tell.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.rc.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n - 1, fmt.Errorf("%w: exceeds %d bytes", ErrObjectTooLarge, l.max)
	}
	return n, err
}

func (l *limitedReadCloser) Close() error {
	return l.rc.Close()
}

// fileReader closes both the decoder and the underlying file.
type fileReader struct {
	io.ReadCloser
	file *os.File
}

func (f *fileReader) Close() error {
	decErr := f.ReadCloser.Close()
	fileErr := f.file.Close()
	return errors.Join(decErr, fileErr)
}

// OpenFile opens a local transcript, decompressing .zst and .br files.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}

	rc, err := Decompress(f, EncodingForPath(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileReader{ReadCloser: rc, file: f}, nil
}
