package transport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// maxJitter is added to every backoff so parallel runs do not retry in step.
const maxJitter = 100 * time.Millisecond

// RetryConfig controls how Execute repeats a failed attempt.
type RetryConfig struct {
	// MaxAttempts counts the first attempt; 1 disables retries.
	MaxAttempts int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64

	// RetryableErrors lists the status codes worth retrying. Timeouts and
	// connection failures without a status are always retried.
	RetryableErrors []int
}

// DefaultRetryConfig makes a single attempt. Raising MaxAttempts enables
// exponential backoff from one second up to thirty.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     1,
		InitialBackoff:  time.Second,
		MaxBackoff:      30 * time.Second,
		BackoffFactor:   2.0,
		RetryableErrors: []int{408, 429, 500, 502, 503, 504},
	}
}

// Validate reports the first invalid field.
func (c *RetryConfig) Validate() error {
	switch {
	case c.MaxAttempts < 1:
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	case c.InitialBackoff < 0:
		return fmt.Errorf("initial_backoff must be non-negative, got %v", c.InitialBackoff)
	case c.MaxBackoff < c.InitialBackoff:
		return fmt.Errorf("max_backoff (%v) must be >= initial_backoff (%v)", c.MaxBackoff, c.InitialBackoff)
	case c.BackoffFactor < 1.0:
		return fmt.Errorf("backoff_factor must be >= 1.0, got %v", c.BackoffFactor)
	}
	return nil
}

// ExecuteFunc performs one attempt.
type ExecuteFunc func(ctx context.Context) (*Response, error)

// Execute calls fn until it succeeds, fails with a non-retryable error, or
// MaxAttempts is reached. The last error is returned unchanged, except that
// cancellation during a backoff yields an ErrorTypeCancelled error.
func Execute(ctx context.Context, config *RetryConfig, fn ExecuteFunc) (*Response, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}

	for attempt := 1; ; attempt++ {
		resp, err := fn(ctx)
		if err == nil {
			if resp.Metadata == nil {
				resp.Metadata = make(map[string]interface{})
			}
			resp.Metadata[MetadataRetryCount] = attempt - 1
			return resp, nil
		}

		hint, retry := config.shouldRetry(err)
		if !retry || attempt >= config.MaxAttempts {
			return nil, err
		}

		timer := time.NewTimer(config.backoff(attempt, hint))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, &TransportError{
				Type:    ErrorTypeCancelled,
				Message: "request cancelled during retry backoff",
				Cause:   ctx.Err(),
			}
		}
	}
}

// shouldRetry reports whether err is worth another attempt and the server's
// Retry-After hint, if any.
func (c *RetryConfig) shouldRetry(err error) (time.Duration, bool) {
	var te *TransportError
	if !errors.As(err, &te) || !te.Retryable {
		return 0, false
	}
	if te.StatusCode == 0 {
		return 0, true
	}
	for _, code := range c.RetryableErrors {
		if code == te.StatusCode {
			return te.RetryAfter, true
		}
	}
	return 0, false
}

// backoff is InitialBackoff * BackoffFactor^(attempt-1), raised to the
// server hint, capped at MaxBackoff, plus jitter.
func (c *RetryConfig) backoff(attempt int, hint time.Duration) time.Duration {
	exp := float64(c.InitialBackoff) * math.Pow(c.BackoffFactor, float64(attempt-1))
	delay := c.MaxBackoff
	if exp < float64(c.MaxBackoff) {
		delay = time.Duration(exp)
	}
	if hint > delay {
		delay = hint
	}
	if delay > c.MaxBackoff {
		delay = c.MaxBackoff
	}
	return delay + time.Duration(rand.Int63n(int64(maxJitter)+1))
}
