package cache

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultPreloadConcurrency bounds parallel decodes so bulk preloads do
// not saturate disk I/O.
const DefaultPreloadConcurrency = 4

// PreloadLoaderFunc produces the payload for the given document id.
type PreloadLoaderFunc[V any] func(ctx context.Context, documentID int64) (V, error)

// PreloadHandle tracks one background preload run. All methods are safe
// to poll from the interactive thread without blocking.
type PreloadHandle struct {
	total     int
	completed atomic.Int64
	failed    atomic.Int64
	done      chan struct{}
	cancel    context.CancelFunc
}

// Progress reports how many of the submitted documents have finished
// (ready or failed) and how many were requested in total.
func (h *PreloadHandle) Progress() (completed, total int) {
	return int(h.completed.Load()), h.total
}

// IsDone reports whether the run has finished, including by cancellation.
func (h *PreloadHandle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Failed reports how many documents failed to decode.
func (h *PreloadHandle) Failed() int {
	return int(h.failed.Load())
}

// Done is closed when the run has finished; for callers that subscribe
// rather than poll.
func (h *PreloadHandle) Done() <-chan struct{} {
	return h.done
}

// Cancel stops submitting new loads. Loads already in flight run to
// completion and their results stay in the cache for possible reuse.
func (h *PreloadHandle) Cancel() {
	h.cancel()
}

// Preload launches background loads for every listed document through
// cache.GetOrLoad, at most limit at a time, and returns immediately.
// Documents are submitted in the order supplied; completion order is
// unspecified. One failing decode never aborts its siblings.
func Preload[V any](ctx context.Context, c *DocumentCache[V], documentIDs []int64, load PreloadLoaderFunc[V], limit int) *PreloadHandle {
	if limit <= 0 {
		limit = DefaultPreloadConcurrency
	}

	// Cancellation gates submission only. Loads carry the caller's
	// values but not its cancellation: the run outlives the call frame
	// that started it, and in-flight decodes are never cut off.
	loadCtx := context.WithoutCancel(ctx)
	submitCtx, cancel := context.WithCancel(context.Background())
	h := &PreloadHandle{
		total:  len(documentIDs),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(h.done)

		g := new(errgroup.Group)
		g.SetLimit(limit)

		for _, id := range documentIDs {
			if submitCtx.Err() != nil {
				log.Debug().Int64("documentID", id).Msg("preload cancelled, skipping remaining documents")
				break
			}
			id := id
			g.Go(func() error {
				if _, err := c.GetOrLoad(loadCtx, id, func(ctx context.Context) (V, error) {
					return load(ctx, id)
				}); err != nil {
					h.failed.Add(1)
				}
				h.completed.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.Error().Err(err).Msg("preload group reported an error")
		}

		completed, total := h.Progress()
		log.Debug().Int("completed", completed).Int("total", total).
			Int("failed", h.Failed()).Msg("preload finished")
	}()

	return h
}
