package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ckerrors "go.pilab.hu/casekit/errors"
)

func TestDocumentCache_GetStates(t *testing.T) {
	ctx := context.Background()
	c := NewDocumentCache[string]()

	_, err := c.Get(1)
	assert.ErrorIs(t, err, ckerrors.ErrNotLoaded)

	v, err := c.GetOrLoad(ctx, 1, func(context.Context) (string, error) {
		return "payload-1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "payload-1", v)

	v, err = c.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "payload-1", v)
	assert.Equal(t, 1, c.Len())
}

func TestDocumentCache_GetReportsPending(t *testing.T) {
	ctx := context.Background()
	c := NewDocumentCache[string]()

	release := make(chan struct{})
	go func() {
		_, _ = c.GetOrLoad(ctx, 7, func(context.Context) (string, error) {
			<-release
			return "slow", nil
		})
	}()

	require.Eventually(t, func() bool {
		_, err := c.Get(7)
		return errors.Is(err, ckerrors.ErrPending)
	}, time.Second, time.Millisecond, "entry should become pending")

	close(release)

	require.Eventually(t, func() bool {
		v, err := c.Get(7)
		return err == nil && v == "slow"
	}, time.Second, time.Millisecond, "entry should become ready")
}

// The central correctness property: N concurrent requests for an absent
// document trigger exactly one decode, and every caller observes the same
// result.
func TestDocumentCache_SingleFlightPerKey(t *testing.T) {
	ctx := context.Background()
	c := NewDocumentCache[*string]()

	var loads atomic.Int64
	loader := func(context.Context) (*string, error) {
		loads.Add(1)
		time.Sleep(20 * time.Millisecond)
		s := "decoded"
		return &s, nil
	}

	const n = 32
	results := make([]*string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(ctx, 42, loader)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), loads.Load(), "loader must run exactly once")
	for _, r := range results {
		assert.Same(t, results[0], r, "all callers must observe the same payload")
	}
}

func TestDocumentCache_UnrelatedKeysLoadConcurrently(t *testing.T) {
	ctx := context.Background()
	c := NewDocumentCache[int64]()

	// Both loaders must be in flight at once; a global load lock would
	// deadlock this rendezvous.
	barrier := make(chan struct{}, 2)
	meet := func(ctx context.Context) (int64, error) {
		barrier <- struct{}{}
		for len(barrier) < 2 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(time.Millisecond):
			}
		}
		return 1, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for _, id := range []int64{1, 2} {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrLoad(ctx, id, meet)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestDocumentCache_FailedEntryRetryWindow(t *testing.T) {
	ctx := context.Background()

	now := time.Now()
	c := NewDocumentCache(
		WithRetryAfter[string](30*time.Second),
		WithClock[string](func() time.Time { return now }),
	)

	var loads atomic.Int64
	bad := errors.New("corrupt file")
	failing := func(context.Context) (string, error) {
		loads.Add(1)
		return "", bad
	}

	_, err := c.GetOrLoad(ctx, 5, failing)
	assert.ErrorIs(t, err, bad)
	require.Equal(t, int64(1), loads.Load())

	// Before the retry window: cached failure, no second decode.
	_, err = c.GetOrLoad(ctx, 5, failing)
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, int64(1), loads.Load(), "must not re-decode before retry window")

	_, err = c.Get(5)
	assert.ErrorIs(t, err, bad)

	// Past the window the document is eligible again.
	now = now.Add(31 * time.Second)
	v, err := c.GetOrLoad(ctx, 5, func(context.Context) (string, error) {
		loads.Add(1)
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, int64(2), loads.Load())
}

func TestDocumentCache_DecodeErrorGetsRetryAt(t *testing.T) {
	ctx := context.Background()

	now := time.Now()
	c := NewDocumentCache(
		WithRetryAfter[string](10*time.Second),
		WithClock[string](func() time.Time { return now }),
	)

	_, err := c.GetOrLoad(ctx, 9, func(context.Context) (string, error) {
		return "", &ckerrors.DecodeError{DocumentID: 9, Cause: errors.New("bad xref")}
	})

	var de *ckerrors.DecodeError
	require.ErrorAs(t, err, &de)
	assert.True(t, de.RetryAt.Equal(now.Add(10*time.Second)))
}

func TestDocumentCache_InvalidateScope(t *testing.T) {
	ctx := context.Background()
	c := NewDocumentCache[string]()

	for _, id := range []int64{1, 2, 3} {
		_, err := c.GetOrLoad(ctx, id, func(context.Context) (string, error) {
			return "doc", nil
		})
		require.NoError(t, err)
	}

	// Open a case containing {2, 4}: 1 and 3 are dropped, 2 survives.
	c.InvalidateScope([]int64{2, 4})

	_, err := c.Get(1)
	assert.ErrorIs(t, err, ckerrors.ErrNotLoaded)
	_, err = c.Get(3)
	assert.ErrorIs(t, err, ckerrors.ErrNotLoaded)

	v, err := c.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "doc", v)

	// 4 starts absent and loads fresh.
	_, err = c.Get(4)
	assert.ErrorIs(t, err, ckerrors.ErrNotLoaded)
	v, err = c.GetOrLoad(ctx, 4, func(context.Context) (string, error) {
		return "new-doc", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new-doc", v)
}

func TestDocumentCache_InFlightLoadSurvivesEviction(t *testing.T) {
	ctx := context.Background()
	c := NewDocumentCache[string]()

	started := make(chan struct{})
	release := make(chan struct{})

	type result struct {
		v   string
		err error
	}
	waiterDone := make(chan result, 1)
	go func() {
		v, err := c.GetOrLoad(ctx, 1, func(context.Context) (string, error) {
			close(started)
			<-release
			return "late", nil
		})
		waiterDone <- result{v, err}
	}()

	<-started
	// The case switches away while the decode is still running; the load
	// is not cancelled.
	c.InvalidateScope([]int64{99})

	_, err := c.Get(1)
	assert.ErrorIs(t, err, ckerrors.ErrNotLoaded, "dropped key must read as not loaded")

	close(release)
	res := <-waiterDone
	require.NoError(t, res.err)
	assert.Equal(t, "late", res.v, "the waiter that joined before eviction still gets the result")

	// The discarded result did not sneak back into the cache.
	_, err = c.Get(1)
	assert.ErrorIs(t, err, ckerrors.ErrNotLoaded)
}

func TestDocumentCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewDocumentCache[string]()

	for _, id := range []int64{1, 2} {
		_, err := c.GetOrLoad(ctx, id, func(context.Context) (string, error) {
			return "doc", nil
		})
		require.NoError(t, err)
	}

	c.Clear()
	assert.Equal(t, 0, c.Len())
	for _, id := range []int64{1, 2} {
		_, err := c.Get(id)
		assert.ErrorIs(t, err, ckerrors.ErrNotLoaded)
	}
}

func TestDocumentCache_GetOrLoadContextCancelled(t *testing.T) {
	c := NewDocumentCache[string]()

	release := make(chan struct{})
	defer close(release)
	go func() {
		_, _ = c.GetOrLoad(context.Background(), 1, func(context.Context) (string, error) {
			<-release
			return "v", nil
		})
	}()

	require.Eventually(t, func() bool {
		_, err := c.Get(1)
		return errors.Is(err, ckerrors.ErrPending)
	}, time.Second, time.Millisecond)

	// A waiter with a cancelled context gives up without disturbing the
	// in-flight load.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetOrLoad(ctx, 1, func(context.Context) (string, error) {
		t.Error("second loader must not run")
		return "", nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
