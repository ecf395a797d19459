package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"go.pilab.hu/casekit/domain"
	ckerrors "go.pilab.hu/casekit/errors"
)

// SessionRepositorySQLite implements domain.SessionRepository on sqlite.
type SessionRepositorySQLite struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepositorySQLite.
func NewSessionRepository(db *sql.DB) domain.SessionRepository {
	return &SessionRepositorySQLite{db: db}
}

// InsertSession stores a freshly issued session.
func (r *SessionRepositorySQLite) InsertSession(ctx context.Context, session *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_sessions (id, user_id, session_token, issued_at, expires_at, last_used_at, revoked)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Token,
		session.IssuedAt.UTC(), session.ExpiresAt.UTC(), session.LastUsedAt.UTC(),
		boolToInt(session.Revoked),
	)
	if err != nil {
		log.Error().Err(err).Int64("userID", session.UserID).Msg("Error storing session")
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSessionByToken retrieves a session by its bearer token.
func (r *SessionRepositorySQLite) GetSessionByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, session_token, issued_at, expires_at, last_used_at, revoked
		 FROM user_sessions WHERE session_token = ?`, token)

	var s domain.Session
	var revoked int
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.IssuedAt, &s.ExpiresAt, &s.LastUsedAt, &revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ckerrors.ErrSessionNotFound
		}
		log.Error().Err(err).Msg("Error getting session by token")
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	s.Revoked = revoked != 0
	return &s, nil
}

// DeleteSessionByToken removes a session row. Reports whether one matched.
func (r *SessionRepositorySQLite) DeleteSessionByToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_sessions WHERE session_token = ?`, token)
	if err != nil {
		log.Error().Err(err).Msg("Error deleting session")
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session: rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteExpiredSessions reaps sessions that expired before the cutoff;
// storage hygiene for the init tool, not a correctness requirement.
func (r *SessionRepositorySQLite) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_sessions WHERE expires_at < ?`, before.UTC())
	if err != nil {
		log.Error().Err(err).Msg("Error deleting expired sessions")
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: rows affected: %w", err)
	}
	if affected > 0 {
		log.Info().Int64("count", affected).Msg("Expired sessions reaped")
	}
	return affected, nil
}

// RevokeSessionsByUserID marks every session of the user as revoked.
func (r *SessionRepositorySQLite) RevokeSessionsByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_sessions SET revoked = 1 WHERE user_id = ?`, userID)
	if err != nil {
		log.Error().Err(err).Int64("userID", userID).Msg("Error revoking user sessions")
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
