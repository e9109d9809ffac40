// Package schedule runs a task on a fixed interval until the context
// is cancelled.
package schedule

import (
	"context"
	"time"

	"lienwatch/internal/logger"
)

// Task is one scheduled unit of work. Errors are logged and do not stop
// the schedule.
type Task func(ctx context.Context) error

// Runner fires a task every Interval. When Immediate is set, the first
// run happens right away instead of after the first interval.
type Runner struct {
	Interval  time.Duration
	Immediate bool
}

// Run blocks until ctx is cancelled, executing the task on schedule.
func (r *Runner) Run(ctx context.Context, task Task) error {
	if r.Immediate {
		r.execute(ctx, task)
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			r.execute(ctx, task)
		}
	}
}

func (r *Runner) execute(ctx context.Context, task Task) {
	logger.Info("scheduled run starting", "next", time.Now().Add(r.Interval).Format(time.RFC3339))
	if err := task(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("scheduled run failed", "error", err)
	}
}
