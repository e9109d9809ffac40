package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pacer enforces the per-instance request ceiling. Requests from one
// fetcher are serialized through its mutex; the limiter spaces starts at
// least 1/rps apart and a small random jitter is added on top to avoid a
// machine-regular cadence.
type pacer struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	jitterMin time.Duration
	jitterMax time.Duration
}

func newPacer(rps float64) *pacer {
	if rps <= 0 {
		rps = 1.0
	}
	return &pacer{
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		jitterMin: 100 * time.Millisecond,
		jitterMax: 500 * time.Millisecond,
	}
}

// wait blocks until the next request may start.
func (p *pacer) wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return sleepContext(ctx, randDuration(p.jitterMin, p.jitterMax))
}

// sleepContext sleeps for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// randDuration returns a uniform random duration in [min, max].
func randDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// longPause sleeps for a long randomized interval between major browser
// navigations. Behavioral detectors flag rapid page-to-page movement.
func longPause(ctx context.Context, min, max time.Duration) error {
	return sleepContext(ctx, randDuration(min, max))
}
