// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("expected valid JSON output: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogActionStart(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	LogActionStart(logger, &ActionRecord{
		ActionID:      "add_departing_employee",
		AssetID:       "asset-1",
		CorrelationID: "correlation-123",
		ParameterSets: 2,
	})

	entry := decodeLines(t, &buf)[0]

	if entry["event"] != "action_start" {
		t.Errorf("expected event to be 'action_start', got: %v", entry["event"])
	}
	if entry["action"] != "add_departing_employee" {
		t.Errorf("expected action to be 'add_departing_employee', got: %v", entry["action"])
	}
	if entry["asset_id"] != "asset-1" {
		t.Errorf("expected asset_id to be 'asset-1', got: %v", entry["asset_id"])
	}
	if entry["correlation_id"] != "correlation-123" {
		t.Errorf("expected correlation_id to be 'correlation-123', got: %v", entry["correlation_id"])
	}
	if entry["parameter_sets"] != float64(2) {
		t.Errorf("expected parameter_sets to be 2, got: %v", entry["parameter_sets"])
	}
}

func TestLogActionStart_MinimalFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	LogActionStart(logger, &ActionRecord{ActionID: "test_connectivity"})

	entry := decodeLines(t, &buf)[0]
	if _, ok := entry["asset_id"]; ok {
		t.Error("expected asset_id to be omitted")
	}
	if _, ok := entry["correlation_id"]; ok {
		t.Error("expected correlation_id to be omitted")
	}
}

func TestLogActionEnd(t *testing.T) {
	tests := []struct {
		name      string
		outcome   *ActionOutcome
		wantLevel string
		wantMsg   string
	}{
		{
			name:      "success",
			outcome:   &ActionOutcome{Success: true, DurationMs: 12, Metadata: map[string]interface{}{"total_count": 3}},
			wantLevel: "INFO",
			wantMsg:   "action completed",
		},
		{
			name:      "failure",
			outcome:   &ActionOutcome{Success: false, DurationMs: 5, Error: "user not found"},
			wantLevel: "ERROR",
			wantMsg:   "action failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

			LogActionEnd(logger, &ActionRecord{ActionID: "search_alerts"}, tt.outcome)

			entry := decodeLines(t, &buf)[0]
			if entry["level"] != tt.wantLevel {
				t.Errorf("expected level %s, got: %v", tt.wantLevel, entry["level"])
			}
			if entry["msg"] != tt.wantMsg {
				t.Errorf("expected msg %q, got: %v", tt.wantMsg, entry["msg"])
			}
			if entry["duration_ms"] != float64(tt.outcome.DurationMs) {
				t.Errorf("expected duration_ms %d, got: %v", tt.outcome.DurationMs, entry["duration_ms"])
			}
			if tt.outcome.Error != "" && entry["error"] != tt.outcome.Error {
				t.Errorf("expected error %q, got: %v", tt.outcome.Error, entry["error"])
			}
			for k, v := range tt.outcome.Metadata {
				if entry[k] != float64(v.(int)) {
					t.Errorf("expected %s=%v, got: %v", k, v, entry[k])
				}
			}
		})
	}
}

func TestActionMiddleware_Handle(t *testing.T) {
	var buf bytes.Buffer
	m := NewActionMiddleware(New(&Config{Level: "info", Format: FormatJSON, Output: &buf}))

	ticks := []time.Time{time.Unix(100, 0), time.Unix(100, int64(250*time.Millisecond))}
	m.now = func() time.Time {
		next := ticks[0]
		ticks = ticks[1:]
		return next
	}

	called := false
	metadata, err := m.Handle(&ActionRecord{ActionID: "get_alert_details"}, func() (map[string]interface{}, error) {
		called = true
		return map[string]interface{}{"username": "alice"}, nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler was not called")
	}
	if metadata["username"] != "alice" {
		t.Errorf("expected metadata to pass through, got: %v", metadata)
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	end := entries[1]
	if end["success"] != true {
		t.Errorf("expected success=true, got: %v", end["success"])
	}
	if end["duration_ms"] != float64(250) {
		t.Errorf("expected duration_ms=250, got: %v", end["duration_ms"])
	}
	if end["username"] != "alice" {
		t.Errorf("expected metadata in completion record, got: %v", end["username"])
	}
}

func TestActionMiddleware_HandleError(t *testing.T) {
	var buf bytes.Buffer
	m := NewActionMiddleware(New(&Config{Level: "info", Format: FormatJSON, Output: &buf}))

	wantErr := errors.New("connection refused")
	_, err := m.Handle(&ActionRecord{ActionID: "test_connectivity"}, func() (map[string]interface{}, error) {
		return nil, wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("expected handler error to be returned, got: %v", err)
	}

	entries := decodeLines(t, &buf)
	end := entries[len(entries)-1]
	if end["level"] != "ERROR" {
		t.Errorf("expected ERROR level, got: %v", end["level"])
	}
	if end["error"] != "connection refused" {
		t.Errorf("expected error field, got: %v", end["error"])
	}
}
