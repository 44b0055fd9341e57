package discovery

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santaclaude2025/session-improver/pkg/config"
	"github.com/santaclaude2025/session-improver/pkg/logger"
)

// CurrentSession selects the most recent session from history.jsonl.
const CurrentSession = "--current"

// Resolve maps a command-line identifier to a transcript path:
// "--current", "current" or "" pick the latest session, an existing file is
// used as-is, and anything else is looked up as a session ID and then as a
// unique session ID prefix.
func Resolve(identifier string) (string, error) {
	switch identifier {
	case "", "current", CurrentSession:
		return FindCurrentSession()
	}

	if info, err := os.Stat(identifier); err == nil && !info.IsDir() {
		return identifier, nil
	}

	path, err := FindBySessionID(identifier)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return "", err
	}

	_, path, err = FindSessionByID(identifier)
	if err != nil {
		return "", err
	}
	return path, nil
}

// historyEntry is one line of ~/.claude/history.jsonl.
type historyEntry struct {
	SessionID string `json:"sessionId"`
}

// FindCurrentSession returns the transcript of the session named by the last
// entry in history.jsonl.
func FindCurrentSession() (string, error) {
	sessionID, err := LatestSessionID()
	if err != nil {
		return "", err
	}
	return FindBySessionID(sessionID)
}

// LatestSessionID reads the sessionId of the last non-empty history line.
func LatestSessionID() (string, error) {
	historyPath, err := config.GetHistoryPath()
	if err != nil {
		return "", err
	}

	f, err := os.Open(historyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist", ErrNoHistory, historyPath)
		}
		return "", fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	var lastLine []byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), config.MaxJSONLLineSize)
	for scanner.Scan() {
		if line := bytes.TrimSpace(scanner.Bytes()); len(line) > 0 {
			lastLine = append(lastLine[:0], line...)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read history: %w", err)
	}
	if lastLine == nil {
		return "", fmt.Errorf("%w: %s is empty", ErrNoHistory, historyPath)
	}

	var entry historyEntry
	if err := json.Unmarshal(lastLine, &entry); err != nil {
		logger.Warn("Unreadable last history line in %s: %v", historyPath, err)
		return "", fmt.Errorf("%w: last entry is not valid JSON", ErrNoHistory)
	}
	if entry.SessionID == "" {
		return "", fmt.Errorf("%w: last entry has no sessionId", ErrNoHistory)
	}
	return entry.SessionID, nil
}
