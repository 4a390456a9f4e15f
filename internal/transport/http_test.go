package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPTransportConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *HTTPTransportConfig
		wantErr string
	}{
		{name: "valid", config: &HTTPTransportConfig{BaseURL: "https://console.us.code42.com"}},
		{name: "missing base url", config: &HTTPTransportConfig{}, wantErr: "base_url is required"},
		{name: "missing scheme", config: &HTTPTransportConfig{BaseURL: "console.us.code42.com"}, wantErr: "scheme"},
		{name: "bad scheme", config: &HTTPTransportConfig{BaseURL: "ftp://console.us.code42.com"}, wantErr: "http or https"},
		{name: "negative timeout", config: &HTTPTransportConfig{BaseURL: "https://x.example.com", Timeout: -1}, wantErr: "timeout"},
		{
			name:    "bad retry config",
			config:  &HTTPTransportConfig{BaseURL: "https://x.example.com", RetryConfig: &RetryConfig{MaxAttempts: 0}},
			wantErr: "retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPTransport_Execute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Default") != "yes" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("X-Request-ID", "req-1")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(&HTTPTransportConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Headers: map[string]string{"X-Default": "yes"},
	})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	resp, err := transport.Execute(context.Background(), &Request{Method: "GET", URL: server.URL + "/test"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != `{"status":"ok"}` {
		t.Errorf("body = %q", string(resp.Body))
	}
	if resp.Metadata[MetadataRequestID] != "req-1" {
		t.Errorf("request id = %v, want req-1", resp.Metadata[MetadataRequestID])
	}
}

func TestHTTPTransport_Execute_SetsJSONContentType(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(&HTTPTransportConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	_, err = transport.Execute(context.Background(), &Request{Method: "POST", URL: server.URL, Body: []byte(`{}`)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", contentType)
	}
}

func TestHTTPTransport_Execute_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantType  ErrorType
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, ErrorTypeAuth, false},
		{"forbidden", http.StatusForbidden, ErrorTypeAuth, false},
		{"not found", http.StatusNotFound, ErrorTypeClient, false},
		{"rate limited", http.StatusTooManyRequests, ErrorTypeRateLimit, true},
		{"server error", http.StatusInternalServerError, ErrorTypeServer, true},
		{"request timeout", http.StatusRequestTimeout, ErrorTypeTimeout, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`[{"name":"SOME_ERROR","description":"details"}]`))
			}))
			defer server.Close()

			transport, err := NewHTTPTransport(&HTTPTransportConfig{BaseURL: server.URL})
			if err != nil {
				t.Fatalf("NewHTTPTransport() error = %v", err)
			}

			_, err = transport.Execute(context.Background(), &Request{Method: "GET", URL: server.URL})
			te, ok := AsTransportError(err)
			if !ok {
				t.Fatalf("expected TransportError, got %T: %v", err, err)
			}
			if te.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", te.Type, tt.wantType)
			}
			if te.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", te.Retryable, tt.retryable)
			}
			if te.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", te.StatusCode, tt.status)
			}
			if !strings.Contains(string(te.Body), "SOME_ERROR") {
				t.Errorf("Body = %q, want raw error body", string(te.Body))
			}
		})
	}
}

func TestHTTPTransport_Execute_Retry(t *testing.T) {
	attemptCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount++
		if attemptCount < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(&HTTPTransportConfig{
		BaseURL: server.URL,
		RetryConfig: &RetryConfig{
			MaxAttempts:     3,
			InitialBackoff:  10 * time.Millisecond,
			MaxBackoff:      100 * time.Millisecond,
			BackoffFactor:   2.0,
			RetryableErrors: []int{503},
		},
	})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	if _, err := transport.Execute(context.Background(), &Request{Method: "GET", URL: server.URL}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if attemptCount != 3 {
		t.Errorf("attempts = %d, want 3", attemptCount)
	}
}

func TestHTTPTransport_Execute_InvalidRequest(t *testing.T) {
	transport, err := NewHTTPTransport(&HTTPTransportConfig{BaseURL: "https://api.example.com"})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	tests := []struct {
		name string
		req  *Request
	}{
		{"missing method", &Request{URL: "https://api.example.com"}},
		{"bad method", &Request{Method: "FETCH", URL: "https://api.example.com"}},
		{"missing url", &Request{Method: "GET"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transport.Execute(context.Background(), tt.req)
			te, ok := AsTransportError(err)
			if !ok || te.Type != ErrorTypeInvalidReq {
				t.Errorf("Execute() error = %v, want invalid_request", err)
			}
		})
	}
}

type countingLimiter struct{ calls int }

func (c *countingLimiter) Wait(ctx context.Context) error {
	c.calls++
	return nil
}

func TestHTTPTransport_RateLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(&HTTPTransportConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	limiter := &countingLimiter{}
	transport.SetRateLimiter(limiter)

	for i := 0; i < 2; i++ {
		if _, err := transport.Execute(context.Background(), &Request{Method: "GET", URL: server.URL}); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}
	if limiter.calls != 2 {
		t.Errorf("limiter calls = %d, want 2", limiter.calls)
	}
}

func TestNewTokenBucketLimiter(t *testing.T) {
	if l := NewTokenBucketLimiter(0, 1); l != nil {
		t.Error("expected nil limiter for zero rate")
	}

	l := NewTokenBucketLimiter(100, 0)
	if l == nil {
		t.Fatal("expected limiter")
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"dial tcp: connection refused", true},
		{"read: connection reset by peer", true},
		{"lookup console.example.com: no such host", true},
		{"unexpected EOF", true},
		{"something else", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isConnectionError(errString(tt.msg)); got != tt.want {
				t.Errorf("isConnectionError(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestHTTPTransport_Execute_RetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(&HTTPTransportConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	_, err = transport.Execute(context.Background(), &Request{Method: "GET", URL: server.URL})
	te, ok := AsTransportError(err)
	if !ok {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.RetryAfter != 12*time.Second {
		t.Errorf("RetryAfter = %v, want 12s", te.RetryAfter)
	}
}

func TestHTTPTransport_Execute_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(&HTTPTransportConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = transport.Execute(ctx, &Request{Method: "GET", URL: server.URL})
	te, ok := AsTransportError(err)
	if !ok || te.Type != ErrorTypeCancelled {
		t.Errorf("Execute() error = %v, want cancelled", err)
	}
}
