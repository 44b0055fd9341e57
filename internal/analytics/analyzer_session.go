package analytics

import "math"

// SessionResult contains session identity, turn counts and duration.
type SessionResult struct {
	SessionID           *string
	Project             *string
	DurationMinutes     float64
	TotalTurns          int
	TotalAssistantTurns int
}

// SessionAnalyzer extracts session metadata.
type SessionAnalyzer struct{}

// Analyze processes the entry store and returns session metadata.
func (a *SessionAnalyzer) Analyze(store *EntryStore) (*SessionResult, error) {
	result := &SessionResult{}

	var firstUser *TranscriptLine
	for _, line := range store.Lines {
		switch {
		case line.IsUserMessage():
			if firstUser == nil && line.HasUserRole() {
				firstUser = line
			}
			if line.IsHumanMessage() {
				result.TotalTurns++
			}
		case line.IsAssistantMessage():
			result.TotalAssistantTurns++
		}
	}

	if firstUser == nil {
		return result, nil
	}
	result.SessionID = optionalString(firstUser.SessionID)
	result.Project = optionalString(firstUser.Cwd)

	last := store.Lines[len(store.Lines)-1]
	if firstUser.Timestamp.Valid && last.Timestamp.Valid {
		minutes := last.Timestamp.Time.Sub(firstUser.Timestamp.Time).Minutes()
		result.DurationMinutes = roundTo(minutes, 1)
	}

	return result, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// roundTo rounds half away from zero to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
