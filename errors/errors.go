package errors

import (
	"errors"
	"fmt"
	"time"
)

// Authentication errors, returned by credential verification.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrUserNotFound       = errors.New("user not found")
)

// Session errors. Validate keeps the three kinds distinct for
// observability; the facade collapses them into ErrUnauthorized before
// anything reaches the UI layer.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionRevoked  = errors.New("session revoked")
)

// Cache errors.
var (
	// ErrNotLoaded means no cache entry exists for the document.
	ErrNotLoaded = errors.New("document not loaded")
	// ErrPending means a decode is in flight; poll again.
	ErrPending = errors.New("document load pending")
)

// Facade errors.
var (
	ErrUnauthorized     = errors.New("unauthorized: please log in again")
	ErrCaseNotFound     = errors.New("case not found")
	ErrNotCaseOwner     = errors.New("case does not belong to this user")
	ErrDocumentNotFound = errors.New("document not found")
)

// DecodeError records a failed document decode. The failure is cached:
// re-decoding the same document is not permitted before RetryAt, so a
// permanently corrupt file cannot hot-loop the workers.
type DecodeError struct {
	DocumentID int64
	Cause      error
	RetryAt    time.Time
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode document %d: %v", e.DocumentID, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// IsSessionError reports whether err is one of the session error kinds.
func IsSessionError(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrSessionRevoked)
}
