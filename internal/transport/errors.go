package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorType buckets failures for retry decisions and metrics labels.
type ErrorType string

const (
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeAuth       ErrorType = "auth"       // 401, 403
	ErrorTypeRateLimit  ErrorType = "rate_limit" // 429
	ErrorTypeServer     ErrorType = "server"     // 5xx
	ErrorTypeClient     ErrorType = "client"     // any other 4xx
	ErrorTypeInvalidReq ErrorType = "invalid_request"
	ErrorTypeCancelled  ErrorType = "cancelled"
)

// maxEchoedBody is the largest reply body copied into Message. Larger
// bodies are usually HTML error pages from a proxy.
const maxEchoedBody = 500

// connectionHints match dial and read failures that are not *net.OpError.
var connectionHints = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network unreachable",
	"eof",
}

// TransportError describes a failed request. For HTTP status failures Body
// holds the raw reply so that callers can parse their own error format.
type TransportError struct {
	Type ErrorType

	// StatusCode is zero when no reply arrived.
	StatusCode int
	Message    string
	Body       []byte
	RequestID  string
	Retryable  bool

	// RetryAfter is the server's Retry-After hint on 429 and 503 replies.
	RetryAfter time.Duration

	Cause error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ErrorType and IsRetryable satisfy errors.ErrorClassifier, which labels
// action failures in metrics.
func (e *TransportError) ErrorType() string { return string(e.Type) }

func (e *TransportError) IsRetryable() bool { return e.Retryable }

// AsTransportError extracts a *TransportError from an error chain.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// statusError classifies a reply with a 4xx or 5xx status.
func statusError(resp *http.Response, body []byte, now time.Time) *TransportError {
	code := resp.StatusCode
	e := &TransportError{
		StatusCode: code,
		Message:    fmt.Sprintf("HTTP %d", code),
		Body:       body,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		e.Type = ErrorTypeAuth
	case code == http.StatusTooManyRequests:
		e.Type, e.Retryable = ErrorTypeRateLimit, true
	case code == http.StatusRequestTimeout:
		e.Type, e.Retryable = ErrorTypeTimeout, true
	case code >= 500:
		e.Type, e.Retryable = ErrorTypeServer, true
	default:
		e.Type = ErrorTypeClient
	}

	if code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable {
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), now)
	}
	if n := len(body); n > 0 && n < maxEchoedBody {
		e.Message += ": " + strings.TrimSpace(string(body))
	}
	return e
}

// requestError classifies a request that produced no reply.
func requestError(ctx context.Context, err error) *TransportError {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return &TransportError{Type: ErrorTypeCancelled, Message: "request cancelled", Cause: err}
	case isTimeoutError(err):
		return &TransportError{Type: ErrorTypeTimeout, Message: "request timeout", Retryable: true, Cause: err}
	case isConnectionError(err):
		return &TransportError{Type: ErrorTypeConnection, Message: "connection error", Retryable: true, Cause: err}
	}
	return &TransportError{Type: ErrorTypeConnection, Message: "HTTP error: " + err.Error(), Retryable: true, Cause: err}
}

// parseRetryAfter accepts delta-seconds or an HTTP date. Anything else,
// or a date in the past, yields zero.
func parseRetryAfter(raw string, now time.Time) time.Duration {
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	at, err := http.ParseTime(raw)
	if err != nil || !at.After(now) {
		return 0
	}
	return at.Sub(now)
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	return (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded)
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range connectionHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
