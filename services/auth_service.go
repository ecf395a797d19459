package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/casekit/domain"
	ckerrors "go.pilab.hu/casekit/errors"
)

// DefaultSessionTTL matches the legacy 24 hour session window.
const DefaultSessionTTL = 24 * time.Hour

// touchTimeout bounds the best-effort last-activity update so a slow store
// can never stall a goroutine indefinitely.
const touchTimeout = 3 * time.Second

// cachedSession is the validation fast-path record: the session row plus
// the user it belongs to, so hot validations skip the store entirely.
type cachedSession struct {
	session *domain.Session
	user    *domain.User
}

// AuthService verifies credentials and manages the session lifecycle:
// issuing opaque bearer tokens on login, validating them on demand and
// revoking them on logout. Expiry is lazy; no background sweeper runs.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	hasher   PasswordHasher
	ttl      time.Duration
	now      func() time.Time
	cache    *ttlcache.Cache[string, *cachedSession]
}

// AuthServiceOption customizes an AuthService.
type AuthServiceOption func(*AuthService)

// WithSessionTTL overrides the default 24h session lifetime.
func WithSessionTTL(ttl time.Duration) AuthServiceOption {
	return func(s *AuthService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects the time source. Tests advance it to cross expiry.
func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	hasher PasswordHasher,
	opts ...AuthServiceOption,
) *AuthService {
	s := &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, *cachedSession](DefaultSessionTTL),
			ttlcache.WithDisableTouchOnHit[string, *cachedSession](),
		),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Start the cleanup process
	go s.cache.Start()

	return s
}

// Login verifies the credential pair and, on success, issues a fresh
// session. Every call creates an independent session; concurrent sessions
// per user are permitted.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	log.Debug().Str("username", username).Msg("Login attempt")

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Login: user not found")
		return nil, ckerrors.ErrInvalidCredentials
	}

	if user.Status == domain.UserStatusDisabled {
		log.Warn().Int64("userID", user.ID).Msg("Login: account disabled")
		return nil, ckerrors.ErrAccountDisabled
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		log.Warn().Int64("userID", user.ID).Msg("Login: incorrect password")
		return nil, ckerrors.ErrInvalidCredentials
	}

	token, err := NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	now := s.now()
	session := &domain.Session{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Token:      token,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
		LastUsedAt: now,
	}
	if err := s.sessions.InsertSession(ctx, session); err != nil {
		log.Error().Err(err).Int64("userID", user.ID).Msg("Login: failed to store session")
		return nil, fmt.Errorf("login: store session: %w", err)
	}

	s.cacheSession(session, user)
	s.touchAsync(user.ID)

	log.Info().Int64("userID", user.ID).Time("expiresAt", session.ExpiresAt).Msg("Login successful")
	return session, nil
}

// Validate checks a bearer token and returns the identity behind it.
// The three failure kinds stay distinct: not-found, expired and revoked
// are different operational signals even though callers deny access on
// all of them. Expired rows are reaped opportunistically.
func (s *AuthService) Validate(ctx context.Context, token string) (*domain.SessionInfo, error) {
	rec, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	// The record is shared with concurrent validations through the
	// fast-path cache, so it is strictly read-only past this point;
	// last activity is persisted by the async touch.
	session, user := rec.session, rec.user
	if !session.ValidAt(s.now()) {
		if session.Revoked {
			return nil, ckerrors.ErrSessionRevoked
		}
		s.reapExpired(token)
		return nil, ckerrors.ErrSessionExpired
	}
	// A disabled account invalidates its live sessions immediately.
	if user.Status != domain.UserStatusActive {
		return nil, ckerrors.ErrSessionRevoked
	}

	s.touchAsync(user.ID)

	return &domain.SessionInfo{
		SessionID: session.ID,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout deletes the session. Idempotent: logging out an unknown token
// reports false, not an error.
func (s *AuthService) Logout(ctx context.Context, token string) (bool, error) {
	s.cache.Delete(HashToken(token))

	deleted, err := s.sessions.DeleteSessionByToken(ctx, token)
	if err != nil {
		log.Error().Err(err).Msg("Logout: failed to delete session")
		return false, fmt.Errorf("logout: %w", err)
	}
	if deleted {
		log.Info().Msg("Logout: session deleted")
	}
	return deleted, nil
}

// RevokeAllForUser marks every session of the user revoked, e.g. when an
// account is disabled by an administrator.
func (s *AuthService) RevokeAllForUser(ctx context.Context, userID int64) error {
	if err := s.sessions.RevokeSessionsByUserID(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions for user %d: %w", userID, err)
	}
	// The fast path may hold sessions of this user under other tokens.
	s.cache.DeleteAll()
	return nil
}

// Close stops the validation cache's cleanup goroutine.
func (s *AuthService) Close() {
	s.cache.Stop()
}

// lookup resolves a token to its session and user, via the fast-path
// cache when possible. Validity is never decided here; the caller
// re-checks revocation and expiry against the injected clock.
func (s *AuthService) lookup(ctx context.Context, token string) (*cachedSession, error) {
	if item := s.cache.Get(HashToken(token)); item != nil {
		return item.Value(), nil
	}

	session, err := s.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ckerrors.ErrSessionNotFound) {
			return nil, ckerrors.ErrSessionNotFound
		}
		log.Error().Err(err).Msg("Validate: session lookup failed")
		return nil, fmt.Errorf("validate: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		log.Error().Err(err).Int64("userID", session.UserID).Msg("Validate: user lookup failed")
		return nil, fmt.Errorf("validate: %w", err)
	}

	rec := &cachedSession{session: session, user: user}
	s.cacheSessionRecord(session, rec)
	return rec, nil
}

func (s *AuthService) cacheSession(session *domain.Session, user *domain.User) {
	s.cacheSessionRecord(session, &cachedSession{session: session, user: user})
}

func (s *AuthService) cacheSessionRecord(session *domain.Session, rec *cachedSession) {
	// ttlcache evicts on the wall clock; under an artificial test clock
	// the remaining lifetime can come out non-positive, so skip caching
	// rather than insert an entry that would never expire correctly.
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return
	}
	s.cache.Set(HashToken(session.Token), rec, ttl)
}

// reapExpired drops the expired session lazily, off the validation path.
func (s *AuthService) reapExpired(token string) {
	s.cache.Delete(HashToken(token))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if _, err := s.sessions.DeleteSessionByToken(ctx, token); err != nil {
			log.Warn().Err(err).Msg("Validate: failed to reap expired session")
		}
	}()
}

// touchAsync updates the user's last-activity timestamp without blocking
// the caller. Failures are logged and dropped.
func (s *AuthService) touchAsync(userID int64) {
	at := s.now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := s.users.TouchLastLogin(ctx, userID, at); err != nil {
			log.Warn().Err(err).Int64("userID", userID).Msg("Failed to update last activity")
		}
	}()
}
