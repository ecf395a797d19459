package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	ckerrors "go.pilab.hu/casekit/errors"
)

// State is the lifecycle state of a cache entry.
type State int

const (
	// StatePending means a decode is in flight for the entry.
	StatePending State = iota
	// StateReady means the entry holds a decoded payload.
	StateReady
	// StateFailed means the last decode failed; the entry holds the cause
	// and a timestamp after which a retry is permitted.
	StateFailed
)

// DefaultRetryAfter is how long a failed decode is held before the
// document becomes eligible for another attempt.
const DefaultRetryAfter = 30 * time.Second

// LoaderFunc produces the payload for one document. It is invoked at most
// once per pending transition, from the calling goroutine.
type LoaderFunc[V any] func(ctx context.Context) (V, error)

// entry is one cache slot. Its result fields are written exactly once,
// under the cache lock, before done is closed; anyone who has observed
// <-done may read them without further locking.
type entry[V any] struct {
	state   State
	value   V
	err     error
	retryAt time.Time
	done    chan struct{}
	// evicted marks a pending entry whose key left the scope. The load
	// finishes and resolves its waiters, but the result is discarded.
	evicted bool
}

// DocumentCache holds decoded document payloads keyed by document id,
// scoped to the currently open case. It guarantees at most one in-flight
// load per key: concurrent requests for the same absent document share a
// single loader invocation and observe the same result.
type DocumentCache[V any] struct {
	mu         sync.RWMutex
	entries    map[int64]*entry[V]
	retryAfter time.Duration
	now        func() time.Time
}

// Option customizes a DocumentCache.
type Option[V any] func(*DocumentCache[V])

// WithRetryAfter overrides the failed-entry retry window.
func WithRetryAfter[V any](d time.Duration) Option[V] {
	return func(c *DocumentCache[V]) {
		if d > 0 {
			c.retryAfter = d
		}
	}
}

// WithClock injects the time source used for retry windows.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *DocumentCache[V]) {
		if now != nil {
			c.now = now
		}
	}
}

// NewDocumentCache creates an empty cache.
func NewDocumentCache[V any](opts ...Option[V]) *DocumentCache[V] {
	c := &DocumentCache[V]{
		entries:    make(map[int64]*entry[V]),
		retryAfter: DefaultRetryAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current state of a document without blocking.
// ErrNotLoaded when no entry exists, ErrPending while a load is in
// flight, the payload when ready, or the cached failure cause.
func (c *DocumentCache[V]) Get(documentID int64) (V, error) {
	var zero V

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[documentID]
	if !ok || e.evicted {
		return zero, ckerrors.ErrNotLoaded
	}
	switch e.state {
	case StatePending:
		return zero, ckerrors.ErrPending
	case StateFailed:
		return zero, e.err
	default:
		return e.value, nil
	}
}

// GetOrLoad returns the payload for a document, loading it if necessary.
// A ready entry resolves immediately; a pending entry makes the caller
// wait for the in-flight load instead of triggering a second one; an
// absent entry (or a failed one past its retry window) makes the caller
// the loader. Intended for worker goroutines: the interactive thread
// polls Get instead.
func (c *DocumentCache[V]) GetOrLoad(ctx context.Context, documentID int64, load LoaderFunc[V]) (V, error) {
	var zero V

	c.mu.Lock()
	if e, ok := c.entries[documentID]; ok {
		switch e.state {
		case StateReady:
			if !e.evicted {
				v := e.value
				c.mu.Unlock()
				return v, nil
			}
			// Evicted result: key re-entered the scope, reload fresh.
		case StateFailed:
			if !e.evicted && c.now().Before(e.retryAt) {
				err := e.err
				c.mu.Unlock()
				return zero, err
			}
			// Retry window passed (or stale eviction): re-arm below.
		case StatePending:
			// Join the in-flight load. If the key was evicted mid-flight
			// but is being requested again, keep the result after all.
			e.evicted = false
			done := e.done
			c.mu.Unlock()

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-done:
			}
			if e.state == StateReady {
				return e.value, nil
			}
			return zero, e.err
		}
	}

	e := &entry[V]{state: StatePending, done: make(chan struct{})}
	c.entries[documentID] = e
	c.mu.Unlock()

	return c.runLoad(ctx, documentID, e, load)
}

// runLoad performs the single decode for a freshly armed pending entry
// and publishes the result to every waiter.
func (c *DocumentCache[V]) runLoad(ctx context.Context, documentID int64, e *entry[V], load LoaderFunc[V]) (V, error) {
	var zero V

	value, err := load(ctx)

	c.mu.Lock()
	if err != nil {
		e.state = StateFailed
		e.err = err
		e.retryAt = c.now().Add(c.retryAfter)
		if de, ok := err.(*ckerrors.DecodeError); ok && de.RetryAt.IsZero() {
			de.RetryAt = e.retryAt
		}
	} else {
		e.state = StateReady
		e.value = value
	}
	if e.evicted {
		// The key left the scope while decoding; the result is discarded
		// but waiters that joined before the eviction still observe it.
		if cur, ok := c.entries[documentID]; ok && cur == e {
			delete(c.entries, documentID)
		}
		log.Debug().Int64("documentID", documentID).Msg("discarding load result for evicted document")
	}
	close(e.done)
	c.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Int64("documentID", documentID).Msg("document load failed")
		return zero, err
	}
	return value, nil
}

// InvalidateScope drops every entry whose key is not in the new scope.
// Called on case switch. In-flight loads for dropped keys are not
// cancelled; they finish and their results are discarded, so a decode is
// never interrupted mid-read.
func (c *DocumentCache[V]) InvalidateScope(documentIDs []int64) {
	keep := make(map[int64]struct{}, len(documentIDs))
	for _, id := range documentIDs {
		keep[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for id, e := range c.entries {
		if _, ok := keep[id]; ok {
			continue
		}
		dropped++
		if e.state == StatePending {
			e.evicted = true
			continue
		}
		delete(c.entries, id)
	}
	log.Debug().Int("dropped", dropped).Int("scopeSize", len(documentIDs)).Msg("cache scope invalidated")
}

// Clear drops all entries; called on logout.
func (c *DocumentCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.entries {
		if e.state == StatePending {
			e.evicted = true
			continue
		}
		delete(c.entries, id)
	}
}

// Len reports the number of live (non-evicted) entries.
func (c *DocumentCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if !e.evicted {
			n++
		}
	}
	return n
}
