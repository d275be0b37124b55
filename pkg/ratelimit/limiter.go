// Package ratelimit paces outbound requests to the exchange's REST API.
// It wraps Uber's token-bucket limiter behind a small interface so callers
// can swap in a no-op limiter for tests.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/ratelimit"
)

// Rate describes how many operations are permitted per interval.
type Rate struct {
	Limit    int
	Interval time.Duration
}

// RateLimiter blocks callers until an operation is permitted.
type RateLimiter interface {
	// Wait blocks until a token is available or ctx is cancelled.
	Wait(ctx context.Context) error

	// SetLimit replaces the rate configuration at runtime.
	SetLimit(rate Rate) error
}

type uberLimiter struct {
	limiter ratelimit.Limiter
	rate    Rate
}

// NewTokenBucketLimiter returns a limiter allowing rate.Limit operations
// per rate.Interval, converted to operations per second for the underlying
// implementation.
func NewTokenBucketLimiter(rate Rate) RateLimiter {
	return &uberLimiter{
		limiter: ratelimit.New(perSecond(rate)),
		rate:    rate,
	}
}

func perSecond(rate Rate) int {
	if rate.Limit <= 0 || rate.Interval <= 0 {
		return 1
	}
	rps := int(float64(rate.Limit) / rate.Interval.Seconds())
	if rps < 1 {
		rps = 1
	}
	return rps
}

func (l *uberLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
	default:
		l.limiter.Take()
		return nil
	}
}

func (l *uberLimiter) SetLimit(rate Rate) error {
	if rate.Limit <= 0 || rate.Interval <= 0 {
		return fmt.Errorf("invalid rate limit: %+v", rate)
	}
	l.limiter = ratelimit.New(perSecond(rate))
	l.rate = rate
	return nil
}
