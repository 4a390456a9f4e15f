package code42

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tombee/code42-connector/internal/transport"
)

// APIError represents an error response from the Code42 API.
type APIError struct {
	StatusCode int
	Name       string
	Message    string
	RequestID  string
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("Code42 API error (HTTP %d): %s - %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("Code42 API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Unwrap returns the transport error this API error was parsed from.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// IsNotFound returns true if the error is a 404 not found error.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsRateLimited returns true if the error is a rate limit error.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsAuthError returns true if the error is an authentication/authorization error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ParseError converts HTTP status transport errors into *APIError.
// Other errors (connection, timeout, cancelled) are returned unchanged.
//
// Code42 returns errors in a few shapes depending on the service:
//
//	[{"name": "SYSTEM", "description": "..."}]
//	{"error": [{"primaryErrorKey": "...", "description": "..."}]}
//	{"message": "..."}
func ParseError(err error) error {
	te, ok := transport.AsTransportError(err)
	if !ok || te.StatusCode == 0 {
		return err
	}

	apiErr := &APIError{
		StatusCode: te.StatusCode,
		RequestID:  te.RequestID,
		Cause:      te,
	}
	apiErr.Name, apiErr.Message = parseErrorBody(te.Body)

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(te.StatusCode)
	}

	return apiErr
}

type errorEntry struct {
	Name            string `json:"name"`
	PrimaryErrorKey string `json:"primaryErrorKey"`
	Description     string `json:"description"`
	Message         string `json:"message"`
}

func (e errorEntry) name() string {
	if e.Name != "" {
		return e.Name
	}
	return e.PrimaryErrorKey
}

func (e errorEntry) message() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Message
}

func parseErrorBody(body []byte) (name, message string) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", ""
	}

	var list []errorEntry
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		return list[0].name(), list[0].message()
	}

	var wrapped struct {
		errorEntry
		Error []errorEntry `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if len(wrapped.Error) > 0 {
			return wrapped.Error[0].name(), wrapped.Error[0].message()
		}
		if wrapped.name() != "" || wrapped.message() != "" {
			return wrapped.name(), wrapped.message()
		}
	}

	if len(trimmed) < 500 {
		return "", trimmed
	}
	return "", ""
}
