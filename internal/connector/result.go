package connector

import (
	"fmt"
	"strings"

	c42errors "github.com/tombee/code42-connector/pkg/errors"
)

// Status is the outcome of an action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ActionRequest is the envelope a host hands to the connector.
type ActionRequest struct {
	// Identifier names the action to run, e.g. "search_alerts".
	Identifier string `json:"identifier"`

	// Action is accepted as an alias of Identifier.
	Action string `json:"action,omitempty"`

	// AssetID keys the opaque state blob.
	AssetID string `json:"asset_id"`

	// Config carries asset configuration (cloud_instance, username, ...).
	// It overrides the config file and environment.
	Config map[string]interface{} `json:"config,omitempty"`

	// Parameters holds one dictionary per action invocation.
	Parameters []map[string]interface{} `json:"parameters"`

	// CorrelationID is reused when it is a valid UUID.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// ActionIdentifier returns Identifier, falling back to Action.
func (r *ActionRequest) ActionIdentifier() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.Action
}

// ActionResult is the outcome of one action invocation.
type ActionResult struct {
	Parameter map[string]interface{} `json:"parameter"`
	Data      []interface{}          `json:"data"`
	Summary   map[string]interface{} `json:"summary"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
}

// NewActionResult creates a result for param. The parameter map is copied.
func NewActionResult(param map[string]interface{}) *ActionResult {
	copied := make(map[string]interface{}, len(param))
	for k, v := range param {
		copied[k] = v
	}
	return &ActionResult{
		Parameter: copied,
		Data:      []interface{}{},
		Summary:   map[string]interface{}{},
	}
}

// AddData appends an item to the result data.
func (r *ActionResult) AddData(item interface{}) {
	r.Data = append(r.Data, item)
}

// UpdateSummary merges values into the summary.
func (r *ActionResult) UpdateSummary(values map[string]interface{}) {
	for k, v := range values {
		r.Summary[k] = v
	}
}

// SetStatus records the status and message.
func (r *ActionResult) SetStatus(status Status, message string) {
	r.Status = status
	r.Message = message
}

// Failed reports whether the result is a failure.
func (r *ActionResult) Failed() bool {
	return r.Status == StatusFailed
}

// RunResult aggregates the results of one request.
type RunResult struct {
	Identifier    string          `json:"identifier"`
	AssetID       string          `json:"asset_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Status        Status          `json:"status"`
	Message       string          `json:"message,omitempty"`
	Results       []*ActionResult `json:"results"`
	Progress      []string        `json:"progress,omitempty"`
}

// Succeeded counts successful results.
func (r *RunResult) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if !res.Failed() {
			n++
		}
	}
	return n
}

// finish derives the overall status from the action results.
func (r *RunResult) finish() {
	r.Status = StatusSuccess
	for _, res := range r.Results {
		if res.Failed() {
			r.Status = StatusFailed
			if r.Message == "" {
				r.Message = res.Message
			}
		}
	}
	if r.Status == StatusSuccess && r.Message == "" {
		r.Message = fmt.Sprintf("%d action(s) succeeded", len(r.Results))
	}
}

// params gives typed access to one parameter dictionary.
// Empty and whitespace-only strings are treated as absent.
type params map[string]interface{}

// String returns the trimmed string value of key and whether it was set.
func (p params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case fmt.Stringer:
		s = val.String()
	default:
		s = fmt.Sprint(val)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// Required returns the value of key or a missing-parameter error.
func (p params) Required(key string) (string, error) {
	s, ok := p.String(key)
	if !ok {
		return "", &c42errors.ValidationError{
			Field:   key,
			Message: fmt.Sprintf("missing required parameter '%s'", key),
		}
	}
	return s, nil
}
