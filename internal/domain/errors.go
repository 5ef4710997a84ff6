package domain

import "errors"

var (
	// ErrNotFound is returned when a session id is absent or unreadable
	ErrNotFound = errors.New("session not found")

	// ErrStorage wraps persistence I/O failures
	ErrStorage = errors.New("storage failure")

	// ErrRemoteCall wraps failures of the remote completion endpoint
	ErrRemoteCall = errors.New("remote call failed")

	// ErrTooFewMessages is returned when a session is too short to summarize
	ErrTooFewMessages = errors.New("too few messages to summarize")

	// ErrRateLimited is returned when the remote call budget is exhausted
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ErrMalformedRecord marks a record that exists but cannot be parsed.
// It matches ErrNotFound under errors.Is.
var ErrMalformedRecord = &malformedError{}

type malformedError struct{}

func (e *malformedError) Error() string { return "malformed session record" }

func (e *malformedError) Is(target error) bool { return target == ErrNotFound }
