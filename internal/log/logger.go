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
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// LevelTrace sits below Debug and carries HTTP bodies.
const LevelTrace = slog.Level(-8)

// Attribute keys shared by the connector and the action middleware.
const (
	ActionKey        = "action"
	AssetKey         = "asset_id"
	CorrelationIDKey = "correlation_id"
	DurationKey      = "duration_ms"
	EventKey         = "event"
)

var levels = map[string]slog.Level{
	"trace":   LevelTrace,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// Config describes the process logger. A nil Output means stderr.
type Config struct {
	Level     string
	Format    Format
	Output    io.Writer
	AddSource bool
}

// FromEnv reads the logger settings from the environment:
//
//	CODE42_DEBUG=1|true   debug level plus source locations, overrides levels below
//	CODE42_LOG_LEVEL      trace, debug, info, warn or error
//	LOG_LEVEL             used when CODE42_LOG_LEVEL is unset
//	LOG_FORMAT            json (default) or text
//	LOG_SOURCE=1          include source locations
func FromEnv() *Config {
	cfg := &Config{Level: "info", Format: FormatJSON, Output: os.Stderr}

	switch debug := os.Getenv("CODE42_DEBUG"); {
	case debug == "1" || debug == "true":
		cfg.Level, cfg.AddSource = "debug", true
	case debug != "":
	case os.Getenv("CODE42_LOG_LEVEL") != "":
		cfg.Level = strings.ToLower(os.Getenv("CODE42_LOG_LEVEL"))
	case os.Getenv("LOG_LEVEL") != "":
		cfg.Level = strings.ToLower(os.Getenv("LOG_LEVEL"))
	}

	if f := os.Getenv("LOG_FORMAT"); f != "" {
		cfg.Format = Format(strings.ToLower(f))
	}
	if os.Getenv("LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}
	return cfg
}

// New builds a logger. Unknown formats fall back to JSON.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level), AddSource: cfg.AddSource}
	if cfg.Format == FormatText {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

// parseLevel is case-insensitive and defaults to info.
func parseLevel(name string) slog.Level {
	if l, ok := levels[strings.ToLower(name)]; ok {
		return l
	}
	return slog.LevelInfo
}

func WithCorrelationID(logger *slog.Logger, correlationID string) *slog.Logger {
	return logger.With(CorrelationIDKey, correlationID)
}

// WithAction tags a logger with the action and, when known, the asset.
func WithAction(logger *slog.Logger, actionID, assetID string) *slog.Logger {
	if assetID == "" {
		return logger.With(ActionKey, actionID)
	}
	return logger.With(ActionKey, actionID, AssetKey, assetID)
}

func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// SanitizeUsername masks all but the first character and the domain,
// so "alice@example.com" logs as "a***@example.com".
func SanitizeUsername(username string) string {
	if len(username) <= 1 {
		return "***"
	}
	if at := strings.LastIndex(username, "@"); at > 0 {
		return username[:1] + "***" + username[at:]
	}
	return username[:1] + "***"
}

// Trace logs at LevelTrace, skipping attribute work when disabled.
func Trace(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	ctx := context.Background()
	if logger.Enabled(ctx, LevelTrace) {
		logger.LogAttrs(ctx, LevelTrace, msg, attrs...)
	}
}
