package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateGate spaces callers by at least a fixed interval. Reservations are taken
// in arrival order, so concurrent callers are released first-in first-out.
type RateGate struct {
	limiter *rate.Limiter
}

func NewRateGate(interval time.Duration) *RateGate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateGate{
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the caller's slot is due.
func (g *RateGate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}
