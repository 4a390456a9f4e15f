package transport

import (
	"context"

	"golang.org/x/time/rate"
)

// TokenBucketLimiter adapts rate.Limiter to the RateLimiter interface.
type TokenBucketLimiter struct {
	limiter *rate.Limiter
}

// NewTokenBucketLimiter allows requestsPerSecond sustained requests with the given burst.
// A non-positive rate disables limiting and returns nil.
func NewTokenBucketLimiter(requestsPerSecond float64, burst int) *TokenBucketLimiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &TokenBucketLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a request is allowed under the rate limit.
func (l *TokenBucketLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
