package resilience

import (
	"context"
	"time"
)

type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}

// RetryPolicy describes attempt count and exponential backoff for upstream calls.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	Base       time.Duration
	// Max caps a single delay. Zero means uncapped.
	Max time.Duration
}

// Delay returns Base * 2^attempt, where attempt 0 is the wait after the first failure.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.Base <= 0 || attempt < 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := p.Base << attempt
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
