package code42

import (
	"errors"
	"testing"

	"github.com/tombee/code42-connector/internal/transport"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantName   string
		wantMsg    string
	}{
		{
			name:       "name/description list",
			statusCode: 401,
			body:       `[{"name":"TOKEN_AUTH_BAD_CREDENTIALS","description":"Invalid credentials."}]`,
			wantName:   "TOKEN_AUTH_BAD_CREDENTIALS",
			wantMsg:    "Invalid credentials.",
		},
		{
			name:       "wrapped error list",
			statusCode: 400,
			body:       `{"error":[{"primaryErrorKey":"INVALID_USER","description":"User not found"}]}`,
			wantName:   "INVALID_USER",
			wantMsg:    "User not found",
		},
		{
			name:       "message object",
			statusCode: 500,
			body:       `{"message":"internal failure"}`,
			wantMsg:    "internal failure",
		},
		{
			name:       "plain text",
			statusCode: 502,
			body:       "bad gateway upstream",
			wantMsg:    "bad gateway upstream",
		},
		{
			name:       "empty body",
			statusCode: 404,
			wantMsg:    "Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := &transport.TransportError{
				Type:       transport.ErrorTypeClient,
				StatusCode: tt.statusCode,
				Body:       []byte(tt.body),
				RequestID:  "req-1",
			}

			err := ParseError(te)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.statusCode)
			}
			if apiErr.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", apiErr.Name, tt.wantName)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
			if apiErr.RequestID != "req-1" {
				t.Errorf("RequestID = %q, want req-1", apiErr.RequestID)
			}
			if !errors.Is(err, te) {
				t.Error("APIError should unwrap to the transport error")
			}
		})
	}
}

func TestParseError_PassThrough(t *testing.T) {
	plain := errors.New("boom")
	if got := ParseError(plain); got != plain {
		t.Errorf("ParseError(plain) = %v, want unchanged", got)
	}

	conn := &transport.TransportError{Type: transport.ErrorTypeConnection, Message: "refused"}
	if got := ParseError(conn); got != conn {
		t.Errorf("ParseError(connection) = %v, want unchanged", got)
	}
}

func TestAPIError_Predicates(t *testing.T) {
	tests := []struct {
		status      int
		notFound    bool
		auth        bool
		rateLimited bool
	}{
		{status: 404, notFound: true},
		{status: 401, auth: true},
		{status: 403, auth: true},
		{status: 429, rateLimited: true},
		{status: 500},
	}

	for _, tt := range tests {
		e := &APIError{StatusCode: tt.status}
		if e.IsNotFound() != tt.notFound {
			t.Errorf("%d: IsNotFound = %v", tt.status, e.IsNotFound())
		}
		if e.IsAuthError() != tt.auth {
			t.Errorf("%d: IsAuthError = %v", tt.status, e.IsAuthError())
		}
		if e.IsRateLimited() != tt.rateLimited {
			t.Errorf("%d: IsRateLimited = %v", tt.status, e.IsRateLimited())
		}
	}
}
