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

package shared

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tombee/code42-connector/internal/config"
	"github.com/tombee/code42-connector/internal/connector"
	"github.com/tombee/code42-connector/internal/log"
	"github.com/tombee/code42-connector/internal/secrets"
	"github.com/tombee/code42-connector/internal/state"
	"github.com/tombee/code42-connector/internal/tracing"
)

// Runtime bundles everything a command needs to run actions.
type Runtime struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     state.Store
	Secrets   *secrets.Resolver
	Metrics   *connector.Metrics
	Connector *connector.Connector

	tracing *tracing.Provider
}

// RuntimeOptions adjusts how a Runtime is built.
type RuntimeOptions struct {
	// Progress receives connector progress messages.
	Progress func(string)

	// LogOutput overrides the log destination (default: stderr).
	LogOutput io.Writer

	// Secrets overrides the secret resolver.
	Secrets *secrets.Resolver
}

// LoadConfig loads the configuration named by --config.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(Flags().ConfigPath)
	if err != nil {
		return nil, NewConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// NewLogger builds the CLI logger: environment settings, then --verbose
// and --quiet.
func NewLogger(output io.Writer) *slog.Logger {
	logCfg := log.FromEnv()
	if output != nil {
		logCfg.Output = output
	}
	switch {
	case Flags().Verbose:
		logCfg.Level = "debug"
	case Flags().Quiet:
		logCfg.Level = "error"
	}
	return log.New(logCfg)
}

// NewRuntime loads configuration and opens the state store, tracer and
// metrics used by a connector run. Callers must Close it.
func NewRuntime(ctx context.Context, opts RuntimeOptions) (*Runtime, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(opts.LogOutput)

	store, err := state.Open(state.Config{Backend: cfg.State.Backend, Path: cfg.State.Path})
	if err != nil {
		return nil, NewConfigError("failed to open state store", err)
	}

	v, _, _ := GetVersion()
	provider, err := tracing.NewProvider(ctx, tracing.Config{
		ServiceName:    "code42-connector",
		ServiceVersion: v,
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
	})
	if err != nil {
		store.Close()
		return nil, NewConfigError("failed to set up tracing", err)
	}

	resolver := opts.Secrets
	if resolver == nil {
		resolver = secrets.NewDefaultResolver()
	}

	metrics := connector.NewMetrics()
	conn := connector.New(connector.Options{
		Config:    cfg,
		Store:     store,
		Secrets:   resolver,
		Logger:    logger,
		Metrics:   metrics,
		Tracer:    provider.Tracer("github.com/tombee/code42-connector"),
		Progress:  opts.Progress,
		UserAgent: UserAgent(),
	})

	return &Runtime{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Secrets:   resolver,
		Metrics:   metrics,
		Connector: conn,
		tracing:   provider,
	}, nil
}

// Close writes the metrics textfile when configured, flushes spans and
// closes the state store.
func (r *Runtime) Close(ctx context.Context) error {
	var firstErr error
	if r.Config.MetricsFile != "" {
		if err := r.Metrics.WriteTextfile(r.Config.MetricsFile); err != nil {
			firstErr = err
		}
	}
	if err := r.tracing.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to flush spans: %w", err)
	}
	if err := r.Store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close state store: %w", err)
	}
	return firstErr
}
