// Package lookup drives per-source property lookups: build a target URL
// from a query, fetch it through the configured strategy, and extract a
// typed result. Batch lookups run with bounded concurrency; one failed
// target never aborts the rest, but a source whose browser session
// cannot be acquired at all stops the whole batch for that source.
package lookup

import (
	"context"
	"errors"
	"sync"

	"lienwatch/internal/fetch"
	"lienwatch/internal/logger"
)

// DefaultConcurrency caps simultaneous lookups per source.
const DefaultConcurrency = 2

// All runs fn for every query with at most maxConcurrent in flight. The
// result slice has exactly one slot per query, in query order. A query
// whose fn returns an error (or panics) yields the zero value in its
// slot; remaining queries still run. The exception is
// fetch.ErrBrowserUnavailable: the source itself is down, so no further
// queries are issued and the remaining slots stay zero.
func All[Q, R any](ctx context.Context, queries []Q, maxConcurrent int, source string, fn func(context.Context, Q) (R, error)) []R {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultConcurrency
	}

	results := make([]R, len(queries))
	sem := make(chan struct{}, maxConcurrent)
	stop := make(chan struct{})
	var stopOnce sync.Once
	var wg sync.WaitGroup

	for i, q := range queries {
		select {
		case <-ctx.Done():
			wg.Wait()
			return results
		case <-stop:
			wg.Wait()
			return results
		case sem <- struct{}{}:
		}
		// A failure may have stopped the batch while we waited for a
		// slot.
		select {
		case <-stop:
			<-sem
			wg.Wait()
			return results
		default:
		}

		wg.Add(1)
		go func(idx int, query Q) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("lookup panicked", "source", source, "index", idx, "panic", r)
				}
			}()

			res, err := fn(ctx, query)
			if err != nil {
				if errors.Is(err, fetch.ErrBrowserUnavailable) {
					logger.Error("lookup source unavailable, aborting batch", "source", source, "index", idx, "error", err)
					stopOnce.Do(func() { close(stop) })
					return
				}
				logger.Warn("lookup failed", "source", source, "index", idx, "error", err)
				return
			}
			results[idx] = res
		}(i, q)
	}

	wg.Wait()
	return results
}
