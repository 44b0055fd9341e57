package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/santaclaude2025/session-improver/pkg/config"
	"github.com/santaclaude2025/session-improver/pkg/logger"
)

// SessionInfo holds metadata about a discovered session transcript
type SessionInfo struct {
	SessionID      string
	TranscriptPath string
	ProjectPath    string // Relative path from projects dir
	ModTime        time.Time
	SizeBytes      int64
}

// FindBySessionID returns the transcript named <id>.jsonl anywhere under the
// projects directory, falling back to any .jsonl file below a directory named
// <id>. When a session was copied into several projects the most recently
// modified copy wins, as with prefix lookups; equal times keep walk order.
func FindBySessionID(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}

	projectsDir, err := config.GetProjectsDir()
	if err != nil {
		return "", err
	}

	fileName := sessionID + ".jsonl"
	var byName, underDir newestPath
	var skippedPaths []string

	filepath.WalkDir(projectsDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Warn("Failed to access path during search: %s: %v", path, walkErr)
			skippedPaths = append(skippedPaths, path)
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(path, ".jsonl") {
			return nil
		}
		if d.Name() == fileName {
			byName.offer(path, d)
			return nil
		}
		if byName.path == "" && hasAncestor(path, projectsDir, sessionID) {
			underDir.offer(path, d)
		}
		return nil
	})

	reportSkippedPaths(skippedPaths, "search")

	switch {
	case byName.path != "":
		return byName.path, nil
	case underDir.path != "":
		return underDir.path, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
}

// newestPath keeps the most recently modified of the paths offered to it.
type newestPath struct {
	path    string
	modTime time.Time
}

func (n *newestPath) offer(path string, d fs.DirEntry) {
	info, err := d.Info()
	if err != nil {
		return
	}
	if n.path == "" || info.ModTime().After(n.modTime) {
		n.path = path
		n.modTime = info.ModTime()
	}
}

// FindSessionByID finds a session transcript by full or partial ID.
// Returns the full session ID and transcript path.
func FindSessionByID(partialID string) (fullID string, transcriptPath string, err error) {
	projectsDir, err := config.GetProjectsDir()
	if err != nil {
		return "", "", err
	}

	var matches []SessionInfo
	var skippedPaths []string

	filepath.WalkDir(projectsDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Warn("Failed to access path during search: %s: %v", path, walkErr)
			skippedPaths = append(skippedPaths, path)
			return nil
		}

		session := parseSessionFromPath(path, d, projectsDir)
		if session == nil {
			return nil
		}
		if strings.HasPrefix(session.SessionID, partialID) {
			matches = append(matches, *session)
		}
		return nil
	})

	reportSkippedPaths(skippedPaths, "search")

	if len(matches) == 0 {
		return "", "", fmt.Errorf("%w: %s", ErrSessionNotFound, partialID)
	}

	// The same session copied into two projects is still one session.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ModTime.After(matches[j].ModTime)
	})
	for _, m := range matches[1:] {
		if m.SessionID != matches[0].SessionID {
			return "", "", fmt.Errorf("%w: '%s' matches %d sessions", ErrAmbiguousSession, partialID, len(matches))
		}
	}

	return matches[0].SessionID, matches[0].TranscriptPath, nil
}

// reportSkippedPaths prints a user-friendly warning about paths that couldn't be accessed
func reportSkippedPaths(skippedPaths []string, operation string) {
	if len(skippedPaths) == 0 {
		return
	}

	fmt.Fprintf(os.Stderr, "\n⚠ Warning: Could not access %d path(s) during %s:\n", len(skippedPaths), operation)
	for _, p := range skippedPaths {
		fmt.Fprintf(os.Stderr, "  - %s\n", p)
	}
	fmt.Fprintf(os.Stderr, "Check permissions or run `session-improver logs path` for details\n\n")
}

// parseSessionFromPath checks if a path is a session transcript and returns SessionInfo
func parseSessionFromPath(path string, d fs.DirEntry, projectsDir string) *SessionInfo {
	if d.IsDir() || !strings.HasSuffix(path, ".jsonl") {
		return nil
	}

	name := d.Name()

	// Skip agent files
	if strings.HasPrefix(name, "agent-") {
		return nil
	}

	sessionID := strings.TrimSuffix(name, ".jsonl")
	if len(sessionID) != config.UUIDLength {
		return nil
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil
	}

	info, err := d.Info()
	if err != nil {
		return nil
	}

	relPath, _ := filepath.Rel(projectsDir, filepath.Dir(path))

	return &SessionInfo{
		SessionID:      sessionID,
		TranscriptPath: path,
		ProjectPath:    relPath,
		ModTime:        info.ModTime(),
		SizeBytes:      info.Size(),
	}
}

// hasAncestor reports whether a directory between root and path is named name.
func hasAncestor(path, root, name string) bool {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == name {
			return true
		}
	}
	return false
}
