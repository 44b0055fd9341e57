package config

import "time"

// Application constants shared across packages

// === Network Timeouts ===

// HTTP server timeouts for inbound requests
const (
	// ServerReadTimeout is the maximum duration for reading the entire request
	ServerReadTimeout = 30 * time.Second

	// ServerWriteTimeout is the maximum duration before timing out writes of the response
	ServerWriteTimeout = 60 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request when keep-alives are enabled
	ServerIdleTimeout = 120 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP server
	ShutdownTimeout = 10 * time.Second
)

// Object storage timeouts
const (
	// StorageDownloadTimeout is the maximum time to fetch one transcript from S3
	StorageDownloadTimeout = 2 * time.Minute
)

// Client timeouts for outbound requests
const (
	// RemoteAnalyzeTimeout bounds one upload to a remote analysis server
	RemoteAnalyzeTimeout = 2 * time.Minute
)

// === File Processing ===

// Byte size constants
const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
)

// Buffer and size limits
const (
	// MaxJSONLLineSize is the maximum size for a single JSONL line (10MB).
	// Transcript lines with thinking blocks and tool results can exceed 1MB.
	MaxJSONLLineSize = 10 * MB

	// MaxUploadSize caps a transcript posted to the HTTP API, after decompression
	MaxUploadSize = 200 * MB
)

// === Validation ===

// ID format lengths
const (
	// UUIDLength is the expected length of session ID strings (with hyphens)
	UUIDLength = 36
)

// === File Paths ===

// Directory and file names (relative to home or the app directory)
const (
	// AppDirName is the session-improver directory under the home directory
	AppDirName = ".session-improver"

	// LogDirName is the log directory within the app dir
	LogDirName = "logs"

	// LogFileName is the name of the log file
	LogFileName = "session-improver.log"

	// ConfigFileName is the YAML config file name
	ConfigFileName = "config.yaml"

	// CacheFileName is the SQLite summary cache file name
	CacheFileName = "cache.db"
)

// Claude Code directories
const (
	// ClaudeStateDir is the Claude Code state directory name
	ClaudeStateDir = ".claude"

	// ClaudeProjectsSubdir is the projects subdirectory within Claude state dir
	ClaudeProjectsSubdir = "projects"

	// ClaudeHistoryFile records prompts across sessions, newest last
	ClaudeHistoryFile = "history.jsonl"
)

// === Environment Variables ===

const (
	// ClaudeStateDirEnv overrides the default Claude state directory (~/.claude).
	// Useful for testing and non-standard installations.
	ClaudeStateDirEnv = "SESSION_IMPROVER_CLAUDE_DIR"

	// AppDirEnv overrides ~/.session-improver
	AppDirEnv = "SESSION_IMPROVER_HOME"
)
