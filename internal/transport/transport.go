// Package transport sends Code42 API requests over HTTP. It owns retry,
// rate limiting and error classification, so the code42 package only deals
// with endpoints, payloads and auth headers.
package transport

import "context"

// Transport executes one logical request, retrying as configured.
// Failures are returned as *TransportError.
type Transport interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
	SetRateLimiter(limiter RateLimiter)
}

// Request is an API call against an absolute URL. Headers override the
// transport defaults.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is a successful reply with its body fully read.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte

	// Metadata carries MetadataRequestID and MetadataRetryCount.
	Metadata map[string]interface{}
}

// Response metadata keys.
const (
	MetadataRequestID  = "request_id"
	MetadataRetryCount = "retry_count"
)

// RateLimiter blocks until the next request may be sent.
type RateLimiter interface {
	Wait(ctx context.Context) error
}
