// Package wait provides the bounded waiting primitives used by every browser step.
// Nothing in this package blocks longer than the timeout it is given.
package wait

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Until evaluates cond immediately and then once per interval until it returns
// true or timeout elapses. It reports whether cond was satisfied.
func Until(ctx context.Context, timeout, interval time.Duration, cond func() bool) bool {
	if cond() {
		return true
	}
	if timeout <= 0 {
		return false
	}
	if interval <= 0 {
		interval = timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The initial token was spent by the check above.
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	limiter.Allow()
	for {
		if err := limiter.Wait(ctx); err != nil {
			return false
		}
		if cond() {
			return true
		}
	}
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pacer spaces out consecutive operations by at least a fixed gap.
// The first call to Wait never blocks.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given minimum gap. A zero gap disables pacing.
func NewPacer(gap time.Duration) *Pacer {
	if gap <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(gap), 1)}
}

// Wait blocks until the next operation may start.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
