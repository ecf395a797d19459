// Package casekit implements the session lifecycle and document preload
// cache behind the case-file manager UI: opaque bearer sessions over a
// relational store, and a case-scoped in-memory cache of decoded
// documents populated by bounded background workers.
package casekit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"go.pilab.hu/casekit/cache"
	"go.pilab.hu/casekit/domain"
	ckerrors "go.pilab.hu/casekit/errors"
	"go.pilab.hu/casekit/services"
)

// Vault is what the UI layer calls: every cache access is preceded by a
// session-validity check, and a session failure of any kind surfaces as
// ErrUnauthorized without touching (or leaking) cache contents.
type Vault struct {
	auth    *services.AuthService
	cases   domain.CaseRepository
	decoder domain.DocumentDecoder
	cache   *cache.DocumentCache[*domain.DocumentContent]
	limit   int

	mu      sync.Mutex
	scope   *domain.CaseScope
	preload *cache.PreloadHandle
}

// VaultOption customizes a Vault.
type VaultOption func(*vaultConfig)

type vaultConfig struct {
	limit      int
	retryAfter time.Duration
}

// WithPreloadConcurrency bounds how many documents decode in parallel.
func WithPreloadConcurrency(n int) VaultOption {
	return func(c *vaultConfig) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithDecodeRetryAfter sets how long a failed decode is cached before the
// document may be attempted again.
func WithDecodeRetryAfter(d time.Duration) VaultOption {
	return func(c *vaultConfig) {
		if d > 0 {
			c.retryAfter = d
		}
	}
}

// NewVault creates a new Vault.
func NewVault(
	auth *services.AuthService,
	cases domain.CaseRepository,
	decoder domain.DocumentDecoder,
	opts ...VaultOption,
) *Vault {
	cfg := &vaultConfig{
		limit:      cache.DefaultPreloadConcurrency,
		retryAfter: cache.DefaultRetryAfter,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Vault{
		auth:    auth,
		cases:   cases,
		decoder: decoder,
		cache:   cache.NewDocumentCache(cache.WithRetryAfter[*domain.DocumentContent](cfg.retryAfter)),
		limit:   cfg.limit,
	}
}

// Login authenticates the credential pair and issues a session.
func (v *Vault) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	return v.auth.Login(ctx, username, password)
}

// Fetch returns a decoded document for a valid session. The session check
// always runs first; callers holding a dead token learn nothing about the
// cache, not even whether the document exists.
func (v *Vault) Fetch(ctx context.Context, token string, documentID int64) (*domain.DocumentContent, error) {
	if _, err := v.auth.Validate(ctx, token); err != nil {
		if !ckerrors.IsSessionError(err) {
			return nil, err
		}
		log.Debug().Err(err).Msg("Fetch: session rejected")
		return nil, ckerrors.ErrUnauthorized
	}
	return v.cache.Get(documentID)
}

// SwitchCase makes caseID the open case: the cache drops every document
// outside the new scope and a fresh preload starts populating the rest.
// The returned handle is safe to poll from the interactive thread.
func (v *Vault) SwitchCase(ctx context.Context, token string, caseID int64) (*cache.PreloadHandle, error) {
	info, err := v.auth.Validate(ctx, token)
	if err != nil {
		if !ckerrors.IsSessionError(err) {
			return nil, err
		}
		log.Debug().Err(err).Msg("SwitchCase: session rejected")
		return nil, ckerrors.ErrUnauthorized
	}

	scope, err := v.cases.ScopeForCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if scope.OwnerID != info.UserID {
		log.Warn().Int64("caseID", caseID).Int64("userID", info.UserID).Msg("SwitchCase: not case owner")
		return nil, ckerrors.ErrNotCaseOwner
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.preload != nil {
		v.preload.Cancel()
	}
	v.cache.InvalidateScope(scope.DocumentIDs)
	v.scope = scope
	v.preload = cache.Preload(ctx, v.cache, scope.DocumentIDs,
		func(ctx context.Context, documentID int64) (*domain.DocumentContent, error) {
			return v.decoder.Decode(ctx, documentID)
		}, v.limit)

	log.Info().Int64("caseID", caseID).Int("documents", len(scope.DocumentIDs)).Msg("case opened, preload started")
	return v.preload, nil
}

// Logout revokes the session and clears the cache unconditionally; the
// cache is never shared across users in this single-tenant design.
func (v *Vault) Logout(ctx context.Context, token string) (bool, error) {
	v.mu.Lock()
	if v.preload != nil {
		v.preload.Cancel()
		v.preload = nil
	}
	v.scope = nil
	v.mu.Unlock()

	v.cache.Clear()

	ok, err := v.auth.Logout(ctx, token)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Progress reports the state of the current preload run. With no run in
// flight it reports done.
func (v *Vault) Progress() (completed, total int, done bool) {
	v.mu.Lock()
	h := v.preload
	v.mu.Unlock()

	if h == nil {
		return 0, 0, true
	}
	completed, total = h.Progress()
	return completed, total, h.IsDone()
}
