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
	"context"
	"log/slog"
	"time"
)

// ActionRecord describes an action invocation for logging purposes.
type ActionRecord struct {
	// ActionID is the identifier of the requested action.
	ActionID string

	// AssetID is the asset the action runs against.
	AssetID string

	// CorrelationID ties together every record of one run.
	CorrelationID string

	// ParameterSets is the number of parameter sets in the request.
	ParameterSets int
}

// ActionOutcome describes how an action invocation finished.
type ActionOutcome struct {
	// Success indicates whether every parameter set succeeded.
	Success bool

	// Error is the error message if the action failed.
	Error string

	// DurationMs is the duration of the action in milliseconds.
	DurationMs int64

	// Metadata contains additional outcome fields.
	Metadata map[string]interface{}
}

func (r *ActionRecord) attrs() []any {
	attrs := []any{ActionKey, r.ActionID}
	if r.AssetID != "" {
		attrs = append(attrs, AssetKey, r.AssetID)
	}
	if r.CorrelationID != "" {
		attrs = append(attrs, CorrelationIDKey, r.CorrelationID)
	}
	return attrs
}

// LogActionStart logs the start of an action.
func LogActionStart(logger *slog.Logger, rec *ActionRecord) {
	attrs := append([]any{EventKey, "action_start"}, rec.attrs()...)
	attrs = append(attrs, "parameter_sets", rec.ParameterSets)
	logger.Info("action started", attrs...)
}

// LogActionEnd logs the outcome of an action.
func LogActionEnd(logger *slog.Logger, rec *ActionRecord, out *ActionOutcome) {
	attrs := append([]any{EventKey, "action_end"}, rec.attrs()...)
	attrs = append(attrs, "success", out.Success, DurationKey, out.DurationMs)

	if out.Error != "" {
		attrs = append(attrs, "error", out.Error)
	}

	for k, v := range out.Metadata {
		attrs = append(attrs, k, v)
	}

	level := slog.LevelInfo
	message := "action completed"

	if !out.Success {
		level = slog.LevelError
		message = "action failed"
	}

	logger.Log(context.Background(), level, message, attrs...)
}

// ActionMiddleware wraps action handlers with start/end logging.
type ActionMiddleware struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewActionMiddleware creates a new action logging middleware.
func NewActionMiddleware(logger *slog.Logger) *ActionMiddleware {
	return &ActionMiddleware{
		logger: logger,
		now:    time.Now,
	}
}

// Handle runs handler and logs the action before and after. The handler's
// metadata, if any, is attached to the completion record.
func (m *ActionMiddleware) Handle(rec *ActionRecord, handler func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	start := m.now()

	LogActionStart(m.logger, rec)

	metadata, err := handler()

	out := &ActionOutcome{
		Success:    err == nil,
		DurationMs: m.now().Sub(start).Milliseconds(),
		Metadata:   metadata,
	}
	if err != nil {
		out.Error = err.Error()
	}

	LogActionEnd(m.logger, rec, out)

	return metadata, err
}
