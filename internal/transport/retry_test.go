package transport

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	c42errors "github.com/tombee/code42-connector/pkg/errors"
)

func TestRetryConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *RetryConfig
		wantErr bool
	}{
		{
			name:    "default config",
			config:  DefaultRetryConfig(),
			wantErr: false,
		},
		{
			name: "max_attempts too low",
			config: &RetryConfig{
				MaxAttempts:    0,
				InitialBackoff: 1 * time.Second,
				MaxBackoff:     30 * time.Second,
				BackoffFactor:  2.0,
			},
			wantErr: true,
		},
		{
			name: "negative initial_backoff",
			config: &RetryConfig{
				MaxAttempts:    3,
				InitialBackoff: -1 * time.Second,
				MaxBackoff:     30 * time.Second,
				BackoffFactor:  2.0,
			},
			wantErr: true,
		},
		{
			name: "max_backoff less than initial_backoff",
			config: &RetryConfig{
				MaxAttempts:    3,
				InitialBackoff: 30 * time.Second,
				MaxBackoff:     1 * time.Second,
				BackoffFactor:  2.0,
			},
			wantErr: true,
		},
		{
			name: "backoff_factor less than 1.0",
			config: &RetryConfig{
				MaxAttempts:    3,
				InitialBackoff: 1 * time.Second,
				MaxBackoff:     30 * time.Second,
				BackoffFactor:  0.5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultRetryConfig_SingleAttempt(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), nil, func(ctx context.Context) (*Response, error) {
		calls++
		return nil, &TransportError{Type: ErrorTypeServer, StatusCode: 503, Retryable: true}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExecute_RetriesRetryableErrors(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:     3,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      5 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: []int{503},
	}

	calls := 0
	resp, err := Execute(context.Background(), config, func(ctx context.Context) (*Response, error) {
		calls++
		if calls < 3 {
			return nil, &TransportError{Type: ErrorTypeServer, StatusCode: 503, Retryable: true}
		}
		return &Response{StatusCode: 200}, nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if got := resp.Metadata[MetadataRetryCount]; got != 2 {
		t.Errorf("retry_count = %v, want 2", got)
	}
}

func TestExecute_DoesNotRetryClientErrors(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:     3,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      5 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: []int{503},
	}

	calls := 0
	_, err := Execute(context.Background(), config, func(ctx context.Context) (*Response, error) {
		calls++
		return nil, &TransportError{Type: ErrorTypeClient, StatusCode: 400}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExecute_UnknownErrorNotRetried(t *testing.T) {
	config := &RetryConfig{MaxAttempts: 3, BackoffFactor: 1.0}

	calls := 0
	_, err := Execute(context.Background(), config, func(ctx context.Context) (*Response, error) {
		calls++
		return nil, errors.New("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("Execute() error = %v, want boom", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExecute_ContextCancelledDuringBackoff(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:     3,
		InitialBackoff:  time.Second,
		MaxBackoff:      time.Second,
		BackoffFactor:   1.0,
		RetryableErrors: []int{500},
	}

	ctx, cancel := context.WithCancel(context.Background())
	_, err := Execute(ctx, config, func(ctx context.Context) (*Response, error) {
		cancel()
		return nil, &TransportError{Type: ErrorTypeServer, StatusCode: 500, Retryable: true}
	})

	te, ok := AsTransportError(err)
	if !ok {
		t.Fatalf("expected TransportError, got %T", err)
	}
	if te.Type != ErrorTypeCancelled {
		t.Errorf("Type = %v, want %v", te.Type, ErrorTypeCancelled)
	}
}

func TestBackoff(t *testing.T) {
	config := &RetryConfig{
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
	}

	tests := []struct {
		name    string
		attempt int
		hint    time.Duration
		min     time.Duration
		max     time.Duration
	}{
		{"first attempt", 1, 0, 1 * time.Second, 1100 * time.Millisecond},
		{"second attempt", 2, 0, 2 * time.Second, 2100 * time.Millisecond},
		{"capped at max", 10, 0, 30 * time.Second, 30100 * time.Millisecond},
		{"far past the cap", 200, 0, 30 * time.Second, 30100 * time.Millisecond},
		{"retry-after wins", 1, 5 * time.Second, 5 * time.Second, 5100 * time.Millisecond},
		{"retry-after capped", 1, time.Minute, 30 * time.Second, 30100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := config.backoff(tt.attempt, tt.hint)
			if got < tt.min || got > tt.max {
				t.Errorf("backoff() = %v, want between %v and %v", got, tt.min, tt.max)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	config := &RetryConfig{RetryableErrors: []int{429, 503}}

	tests := []struct {
		name      string
		err       error
		wantHint  time.Duration
		wantRetry bool
	}{
		{"plain error", errors.New("boom"), 0, false},
		{"not retryable", &TransportError{StatusCode: 429}, 0, false},
		{"no status", &TransportError{Type: ErrorTypeTimeout, Retryable: true}, 0, true},
		{"listed status", &TransportError{StatusCode: 429, Retryable: true, RetryAfter: 3 * time.Second}, 3 * time.Second, true},
		{"unlisted status", &TransportError{StatusCode: 500, Retryable: true}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint, retry := config.shouldRetry(tt.err)
			if hint != tt.wantHint || retry != tt.wantRetry {
				t.Errorf("shouldRetry() = (%v, %v), want (%v, %v)", hint, retry, tt.wantHint, tt.wantRetry)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{"missing", "", 0},
		{"seconds", "7", 7 * time.Second},
		{"zero seconds", "0", 0},
		{"malformed", "soon", 0},
		{"past date", "Wed, 21 Oct 2015 07:28:00 GMT", 0},
		{"future date", "Fri, 01 Mar 2024 12:00:20 GMT", 20 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.raw, now); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTransportError_Classify(t *testing.T) {
	err := fmt.Errorf("search alerts: %w", &TransportError{Type: ErrorTypeRateLimit, StatusCode: 429, Retryable: true})

	if got := c42errors.Classify(err); got != "rate_limit" {
		t.Errorf("Classify() = %q, want rate_limit", got)
	}
}
