package domain

import (
	"context"
	"time"
)

// UserRepository provides access to user accounts and their credentials.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	// TouchLastLogin updates the user's last-activity timestamp.
	// Best-effort bookkeeping; callers must not fail on its error.
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
}

// SessionRepository persists login sessions. Expiry is lazy: rows are
// deleted on logout or opportunistically when an expired session is seen,
// never by a background sweeper.
type SessionRepository interface {
	InsertSession(ctx context.Context, session *Session) error
	GetSessionByToken(ctx context.Context, token string) (*Session, error)
	// DeleteSessionByToken removes a session. Returns false when no row
	// matched, which is not an error (logout is idempotent).
	DeleteSessionByToken(ctx context.Context, token string) (bool, error)
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
	RevokeSessionsByUserID(ctx context.Context, userID int64) error
}

// CaseRepository resolves cases and their document working sets.
type CaseRepository interface {
	GetCaseByID(ctx context.Context, id int64) (*Case, error)
	// ScopeForCase returns the case's documents in directory order.
	ScopeForCase(ctx context.Context, caseID int64) (*CaseScope, error)
}

// DocumentRepository resolves stored document metadata.
type DocumentRepository interface {
	GetDocumentByID(ctx context.Context, id int64) (*Document, error)
	ListDocumentsByCase(ctx context.Context, caseID int64) ([]*Document, error)
}

// DocumentDecoder turns a stored document into its decoded payload.
// Implementations perform I/O and are invoked only from background workers.
type DocumentDecoder interface {
	Decode(ctx context.Context, documentID int64) (*DocumentContent, error)
}
