package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/code42-connector/internal/code42"
	"github.com/tombee/code42-connector/internal/config"
	"github.com/tombee/code42-connector/internal/log"
	"github.com/tombee/code42-connector/internal/secrets"
	"github.com/tombee/code42-connector/internal/state"
	"github.com/tombee/code42-connector/internal/tracing"
	"github.com/tombee/code42-connector/internal/transport"
)

// DefaultAssetID keys the state of requests that carry no asset id.
const DefaultAssetID = "default"

const tracerName = "github.com/tombee/code42-connector/internal/connector"

// Options configures a Connector.
type Options struct {
	// Config is the base asset configuration (file and environment).
	// Request config is overlaid on a copy for each run.
	Config *config.Config

	// Store persists the opaque state blob. Defaults to an in-memory store.
	Store state.Store

	// Secrets resolves secret references in the password.
	// Defaults to the env and keychain backends.
	Secrets *secrets.Resolver

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *Metrics

	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer

	// Progress receives progress messages as they are recorded.
	Progress func(string)

	// UserAgent is sent on every Code42 request.
	UserAgent string
}

// Connector dispatches action requests to the Code42 API.
// A Connector handles one request at a time.
type Connector struct {
	base       *config.Config
	store      state.Store
	secrets    *secrets.Resolver
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	onProgress func(string)
	userAgent  string

	actions map[string]*action
	order   []string

	// per-request state, reset by Initialize
	cfg      *config.Config
	assetID  string
	state    state.State
	client   *code42.Client
	progress []string
}

// New creates a Connector with the Code42 action table.
func New(opts Options) *Connector {
	c := &Connector{
		base:       opts.Config,
		store:      opts.Store,
		secrets:    opts.Secrets,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
		onProgress: opts.Progress,
		userAgent:  opts.UserAgent,
		actions:    make(map[string]*action),
	}
	if c.base == nil {
		c.base = config.Default()
	}
	if c.store == nil {
		c.store = state.NewMemoryStore()
	}
	if c.secrets == nil {
		c.secrets = secrets.NewDefaultResolver()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	if c.userAgent == "" {
		c.userAgent = "code42-connector"
	}

	c.registerActions()
	return c
}

// Initialize loads the asset state and resolves the asset configuration
// for req. Missing required configuration is an error.
func (c *Connector) Initialize(ctx context.Context, req *ActionRequest) error {
	c.cfg = nil
	c.client = nil
	c.state = nil
	c.progress = nil

	c.assetID = req.AssetID
	if c.assetID == "" {
		c.assetID = DefaultAssetID
	}

	cfg := c.base.Clone()
	if err := cfg.Overlay(req.Config); err != nil {
		return err
	}
	if err := cfg.ValidateAsset(); err != nil {
		return err
	}

	st, err := c.store.Load(ctx, c.assetID)
	if err != nil {
		return fmt.Errorf("failed to load state for asset %s: %w", c.assetID, err)
	}

	c.cfg = cfg
	c.state = st
	c.logger.Debug("connector initialized",
		log.AssetKey, c.assetID,
		"cloud_instance", cfg.CloudInstance,
		"username", log.SanitizeUsername(cfg.Username),
		"auth_type", cfg.AuthType,
		"state_keys", len(st))
	return nil
}

// HandleAction runs one action for one parameter set. It never returns nil
// and never panics on handler errors; failures are carried in the result.
func (c *Connector) HandleAction(ctx context.Context, identifier string, param map[string]interface{}) *ActionResult {
	result := NewActionResult(param)

	act, ok := c.actions[identifier]
	if !ok {
		result.SetStatus(StatusFailed, fmt.Sprintf("Code42: Action %s does not exist.", identifier))
		c.metrics.recordAction("unknown", StatusFailed, 0)
		return result
	}

	logger := log.WithAction(c.logger, identifier, c.assetID)
	c.saveProgress(fmt.Sprintf("Code42: handling action %s...", identifier))

	ctx, span := c.tracer.Start(ctx, identifier, trace.WithAttributes(
		attribute.String("code42.action", identifier),
		attribute.String("code42.asset_id", c.assetID),
	))
	defer span.End()

	start := time.Now()
	err := act.handler(ctx, result, params(param))
	duration := time.Since(start)

	if err != nil {
		var failure *actionFailure
		if errors.As(err, &failure) {
			result.SetStatus(StatusFailed, failure.message)
		} else {
			result.SetStatus(StatusFailed, fmt.Sprintf("Code42: Failed execution of action %s: %s", identifier, err))
		}
		span.RecordError(err)
		c.metrics.recordError(identifier, err)
		logger.Warn("action handler failed", log.Error(err), log.DurationKey, duration.Milliseconds())
	} else if result.Status == "" {
		result.Status = StatusSuccess
	}

	if result.Failed() {
		span.SetStatus(codes.Error, result.Message)
	}
	c.metrics.recordAction(identifier, result.Status, duration)
	return result
}

// Finalize saves the state blob back unchanged.
func (c *Connector) Finalize(ctx context.Context) error {
	if c.state == nil {
		return nil
	}
	if err := c.store.Save(ctx, c.assetID, c.state); err != nil {
		return fmt.Errorf("failed to save state for asset %s: %w", c.assetID, err)
	}
	return nil
}

// Run handles a whole request: Initialize, HandleAction per parameter set,
// then Finalize. A request without parameters runs the action once with
// an empty parameter set.
func (c *Connector) Run(ctx context.Context, req *ActionRequest) *RunResult {
	identifier := req.ActionIdentifier()
	ctx, correlationID := tracing.Ensure(ctx, req.CorrelationID)

	run := &RunResult{
		Identifier:    identifier,
		AssetID:       req.AssetID,
		CorrelationID: correlationID.String(),
		Results:       []*ActionResult{},
	}

	paramSets := req.Parameters
	if len(paramSets) == 0 {
		paramSets = []map[string]interface{}{{}}
	}

	ctx, span := c.tracer.Start(ctx, "code42 run", trace.WithAttributes(
		attribute.String("code42.action", identifier),
		attribute.String(log.CorrelationIDKey, correlationID.String()),
		attribute.Int("code42.parameter_sets", len(paramSets)),
	))
	defer span.End()

	logger := log.WithCorrelationID(c.logger, correlationID.String())
	rec := &log.ActionRecord{
		ActionID:      identifier,
		AssetID:       req.AssetID,
		CorrelationID: correlationID.String(),
		ParameterSets: len(paramSets),
	}

	// the record carries the correlation id itself
	middleware := log.NewActionMiddleware(c.logger)

	saved := c.logger
	c.logger = logger
	defer func() { c.logger = saved }()

	middleware.Handle(rec, func() (map[string]interface{}, error) {
		if err := c.Initialize(ctx, req); err != nil {
			run.Status = StatusFailed
			run.Message = fmt.Sprintf("Code42: Failed to initialize connector: %s", err)
			return nil, err
		}

		for _, param := range paramSets {
			run.Results = append(run.Results, c.HandleAction(ctx, identifier, param))
		}

		run.finish()
		if err := c.Finalize(ctx); err != nil {
			run.Status = StatusFailed
			run.Message = fmt.Sprintf("Code42: %s", err)
		}

		metadata := map[string]interface{}{
			"succeeded": run.Succeeded(),
			"failed":    len(run.Results) - run.Succeeded(),
		}
		if run.Status == StatusFailed {
			return metadata, errors.New(run.Message)
		}
		return metadata, nil
	})

	run.Progress = append([]string(nil), c.progress...)
	if run.Status == StatusFailed {
		span.SetStatus(codes.Error, run.Message)
	}
	return run
}

// State returns the state loaded by Initialize.
func (c *Connector) State() state.State {
	return c.state
}

// code42Client builds the Code42 client on first use. Creation is deferred
// so that credential errors surface as action results.
func (c *Connector) code42Client(ctx context.Context) (*code42.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	if c.cfg == nil {
		return nil, errors.New("connector is not initialized")
	}

	password, err := c.secrets.Resolve(ctx, c.cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve password: %w", err)
	}

	retry := transport.DefaultRetryConfig()
	retry.MaxAttempts = c.cfg.MaxAttempts

	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{
		BaseURL:          code42.BaseURL(c.cfg.CloudInstance),
		Timeout:          c.cfg.Timeout,
		TLSInsecure:      c.cfg.InsecureSkipVerify,
		Headers:          map[string]string{"User-Agent": c.userAgent},
		RetryConfig:      retry,
		WrapRoundTripper: tracing.WrapRoundTripper,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cloud_instance %q: %w", c.cfg.CloudInstance, err)
	}
	if limiter := transport.NewTokenBucketLimiter(c.cfg.RequestsPerSecond, 1); limiter != nil {
		tr.SetRateLimiter(limiter)
	}

	client, err := code42.NewClient(&code42.Config{
		Transport:     tr,
		CloudInstance: c.cfg.CloudInstance,
		Username:      c.cfg.Username,
		Password:      password,
		AuthType:      c.cfg.AuthType,
	})
	if err != nil {
		return nil, err
	}

	c.client = client
	return client, nil
}

func (c *Connector) saveProgress(msg string) {
	c.progress = append(c.progress, msg)
	c.logger.Debug("progress", "message", msg)
	if c.onProgress != nil {
		c.onProgress(msg)
	}
}
