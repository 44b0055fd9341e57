package api

import (
	"errors"
	"net/http"

	"github.com/santaclaude2025/session-improver/internal/source"
)

// limitBody caps the request body at limit bytes as sent on the wire.
func limitBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// decompressMiddleware decodes request bodies sent with Content-Encoding
// zstd or br. Requests without the header pass through; other encodings
// get 415.
func decompressMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			encoding := r.Header.Get("Content-Encoding")
			if encoding == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := source.Decompress(r.Body, encoding)
			if errors.Is(err, source.ErrUnsupportedEncoding) {
				respondError(w, http.StatusUnsupportedMediaType,
					"Unsupported Content-Encoding: "+encoding)
				return
			}
			if err != nil {
				respondError(w, http.StatusBadRequest, "Failed to create "+encoding+" decoder")
				return
			}
			defer body.Close()

			r.Body = body

			// Downstream handlers see the decoded stream of unknown length.
			r.Header.Del("Content-Encoding")
			r.Header.Del("Content-Length")
			r.ContentLength = -1

			next.ServeHTTP(w, r)
		})
	}
}
