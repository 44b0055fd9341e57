package discovery

import "errors"

var (
	// ErrSessionNotFound is returned when no transcript matches an identifier
	ErrSessionNotFound = errors.New("session not found")

	// ErrAmbiguousSession is returned when a session ID prefix matches several transcripts
	ErrAmbiguousSession = errors.New("ambiguous session ID")

	// ErrNoHistory is returned when history.jsonl is missing or names no session
	ErrNoHistory = errors.New("no session history")
)
