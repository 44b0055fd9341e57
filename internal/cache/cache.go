// Package cache stores computed summaries in a local SQLite database so that
// re-analyzing an unchanged transcript skips parsing.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/santaclaude2025/session-improver/internal/analytics"
)

// Key identifies one transcript revision analyzed under one set of options.
type Key struct {
	Path        string
	Size        int64
	ModTime     time.Time
	OptionsHash string
}

// KeyForFile stats path and builds its cache key.
func KeyForFile(path string, opts analytics.Options) (Key, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Key{}, fmt.Errorf("failed to stat transcript: %w", err)
	}
	return Key{
		Path:        abs,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		OptionsHash: HashOptions(opts),
	}, nil
}

// HashOptions fingerprints detector thresholds.
func HashOptions(opts analytics.Options) string {
	data, _ := json.Marshal(opts)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// Open opens or creates the cache database at path
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	db := &DB{
		conn: conn,
		path: path,
	}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS summaries (
		transcript_path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		mod_time_ns INTEGER NOT NULL,
		options_hash TEXT NOT NULL,
		summary_json TEXT NOT NULL,
		computed_at DATETIME NOT NULL,
		PRIMARY KEY (transcript_path, options_hash)
	);

	CREATE INDEX IF NOT EXISTS idx_summaries_computed_at ON summaries(computed_at);
	`

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Get returns the cached summary for key. A stale or missing entry reports
// ok=false.
func (db *DB) Get(key Key) (*analytics.Summary, bool, error) {
	var (
		size    int64
		modTime int64
		data    string
	)
	err := db.conn.QueryRow(`
		SELECT size_bytes, mod_time_ns, summary_json
		FROM summaries
		WHERE transcript_path = ? AND options_hash = ?
	`, key.Path, key.OptionsHash).Scan(&size, &modTime, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query summary: %w", err)
	}

	if size != key.Size || modTime != key.ModTime.UnixNano() {
		return nil, false, nil
	}

	var summary analytics.Summary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached summary: %w", err)
	}
	return &summary, true, nil
}

// Put stores summary under key, replacing any older revision of the same
// transcript.
func (db *DB) Put(key Key, summary *analytics.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO summaries (transcript_path, size_bytes, mod_time_ns, options_hash, summary_json, computed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (transcript_path, options_hash) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			mod_time_ns = excluded.mod_time_ns,
			summary_json = excluded.summary_json,
			computed_at = excluded.computed_at
	`,
		key.Path,
		key.Size,
		key.ModTime.UnixNano(),
		key.OptionsHash,
		string(data),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}
	return nil
}

// Clear removes every cached summary and returns how many were dropped.
func (db *DB) Clear() (int64, error) {
	res, err := db.conn.Exec("DELETE FROM summaries")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	return res.RowsAffected()
}

// Entry describes one cached summary.
type Entry struct {
	Path       string
	SizeBytes  int64
	ComputedAt time.Time
}

// Recent returns the N most recently computed entries
func (db *DB) Recent(limit int) ([]Entry, error) {
	rows, err := db.conn.Query(`
		SELECT transcript_path, size_bytes, computed_at
		FROM summaries
		ORDER BY computed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.SizeBytes, &e.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summaries: %w", err)
	}

	return entries, nil
}

// Count returns the number of cached summaries
func (db *DB) Count() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM summaries").Scan(&count)
	return count, err
}
