package domain

import "time"

// Session represents an active login. One row is created per successful
// login call; a user may hold any number of concurrent sessions.
type Session struct {
	ID         string    `db:"id"`
	UserID     int64     `db:"user_id"`
	Token      string    `db:"session_token"` // opaque bearer token, >=128 bits of entropy
	IssuedAt   time.Time `db:"issued_at"`
	ExpiresAt  time.Time `db:"expires_at"`
	LastUsedAt time.Time `db:"last_used_at"`
	Revoked    bool      `db:"revoked"`
}

// ValidAt reports whether the session may still be used at the given
// instant. Expiry is a pure function of the clock, not a stored transition.
func (s *Session) ValidAt(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// SessionInfo is what Validate hands back to callers: just enough identity
// to act on, never the raw session row.
type SessionInfo struct {
	SessionID string
	UserID    int64
	Username  string
	Role      string
	ExpiresAt time.Time
}
