package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a request when HTTPTransportConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodPatch:   true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// HTTPTransportConfig configures an HTTPTransport.
type HTTPTransportConfig struct {
	// BaseURL is the console URL; scheme and host are required.
	BaseURL string

	Timeout time.Duration

	// Headers are sent on every request, e.g. User-Agent.
	Headers map[string]string

	// TLSInsecure skips certificate verification. Test consoles only.
	TLSInsecure bool

	// RetryConfig defaults to DefaultRetryConfig.
	RetryConfig *RetryConfig

	// WrapRoundTripper decorates the round tripper, e.g. with tracing.
	WrapRoundTripper func(http.RoundTripper) http.RoundTripper
}

// Validate checks the base URL, timeout and retry settings.
func (c *HTTPTransportConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	switch {
	case err != nil:
		return fmt.Errorf("invalid base_url: %w", err)
	case u.Scheme == "":
		return errors.New("base_url must include scheme (http:// or https://)")
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("base_url scheme must be http or https, got %q", u.Scheme)
	case u.Host == "":
		return errors.New("base_url must include host")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}
	if c.RetryConfig != nil {
		if err := c.RetryConfig.Validate(); err != nil {
			return fmt.Errorf("invalid retry configuration: %w", err)
		}
	}
	return nil
}

// HTTPTransport sends requests with net/http.
type HTTPTransport struct {
	config  *HTTPTransportConfig
	retry   *RetryConfig
	client  *http.Client
	limiter RateLimiter
	now     func() time.Time
}

// NewHTTPTransport validates config and builds the HTTP client.
func NewHTTPTransport(config *HTTPTransportConfig) (*HTTPTransport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConnsPerHost = 4
	base.ResponseHeaderTimeout = timeout
	base.TLSClientConfig = &tls.Config{InsecureSkipVerify: config.TLSInsecure}

	var rt http.RoundTripper = base
	if config.WrapRoundTripper != nil {
		rt = config.WrapRoundTripper(rt)
	}

	retry := config.RetryConfig
	if retry == nil {
		retry = DefaultRetryConfig()
	}

	return &HTTPTransport{
		config: config,
		retry:  retry,
		client: &http.Client{Timeout: timeout, Transport: rt},
		now:    time.Now,
	}, nil
}

// HTTPClient lends the client to libraries that issue their own requests,
// such as the OAuth2 token exchange.
func (t *HTTPTransport) HTTPClient() *http.Client {
	return t.client
}

// SetRateLimiter makes every attempt, retries included, wait on limiter.
func (t *HTTPTransport) SetRateLimiter(limiter RateLimiter) {
	t.limiter = limiter
}

// Execute implements Transport.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := checkRequest(req); err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: "invalid request: " + err.Error(),
			Cause:   err,
		}
	}
	return Execute(ctx, t.retry, func(ctx context.Context) (*Response, error) {
		return t.attempt(ctx, req)
	})
}

func (t *HTTPTransport) attempt(ctx context.Context, req *Request) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Type: ErrorTypeCancelled, Message: "rate limit wait cancelled", Cause: err}
		}
	}

	httpReq, err := t.newRequest(ctx, req)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: "failed to build HTTP request: " + err.Error(),
			Cause:   err,
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, requestError(ctx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{
			Type:      ErrorTypeConnection,
			Message:   "failed to read response body: " + err.Error(),
			Retryable: true,
			Cause:     err,
		}
	}

	if httpResp.StatusCode >= 400 {
		return nil, statusError(httpResp, body, t.now())
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Metadata:   map[string]interface{}{},
	}
	if id := httpResp.Header.Get("X-Request-ID"); id != "" {
		resp.Metadata[MetadataRequestID] = id
	}
	return resp, nil
}

func (t *HTTPTransport) newRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	for _, headers := range []map[string]string{t.config.Headers, req.Headers} {
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

func checkRequest(req *Request) error {
	switch {
	case req.Method == "":
		return errors.New("method is required")
	case !allowedMethods[req.Method]:
		return fmt.Errorf("invalid HTTP method: %q", req.Method)
	case req.URL == "":
		return errors.New("URL is required")
	}
	if _, err := url.Parse(req.URL); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	return nil
}
