package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted marks a permanent failure: the target stays
// unavailable after every allowed attempt. Callers treat it as "no result
// for this target", never as a batch-fatal error.
var ErrRetriesExhausted = errors.New("retries exhausted")

// withRetry runs op up to attempts times with exponential backoff between
// failures. The backoff doubles each attempt and is capped at 10x base.
func withRetry(ctx context.Context, attempts int, base time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	if base <= 0 {
		base = time.Second
	}
	cap := 10 * base

	var lastErr error
	delay := base
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleepContext(ctx, delay); err != nil {
				return err
			}
			delay *= 2
			if delay > cap {
				delay = cap
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempts, lastErr)
}
