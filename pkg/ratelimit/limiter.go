package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"yandl/pkg/config"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed right now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// TokenBucket implements Limiter on top of rate.Limiter
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket allows requestsPerPeriod requests per period with the given burst
func NewTokenBucket(requestsPerPeriod int, period time.Duration, burst int) *TokenBucket {
	if burst <= 0 {
		burst = 1
	}
	every := period / time.Duration(requestsPerPeriod)
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(every), burst)}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }

// FromConfig builds the limiter described by cfg
func FromConfig(cfg config.RateLimitConfig) Limiter {
	if cfg.RequestsPerMinute <= 0 {
		return Unlimited{}
	}
	return NewTokenBucket(cfg.RequestsPerMinute, time.Minute, cfg.BurstSize)
}
