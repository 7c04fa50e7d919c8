package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pageLimiter spaces page visits by a fixed delay. A zero delay never blocks.
type pageLimiter struct {
	limiter *rate.Limiter
}

func newPageLimiter(delay time.Duration) *pageLimiter {
	if delay <= 0 {
		return &pageLimiter{}
	}
	return &pageLimiter{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next visit is allowed or ctx ends.
func (p *pageLimiter) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
