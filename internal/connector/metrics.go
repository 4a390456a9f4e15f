package connector

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tombee/code42-connector/internal/code42"
	c42errors "github.com/tombee/code42-connector/pkg/errors"
)

// Metrics records action outcomes on a private registry. A CLI run is
// short-lived, so metrics are exported with WriteTextfile for a node
// exporter textfile collector rather than served over HTTP.
type Metrics struct {
	registry *prometheus.Registry

	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewMetrics creates the connector metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// actions counts action invocations by outcome
		actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "code42_connector_actions_total",
				Help: "Total action invocations by action and status",
			},
			[]string{"action", "status"},
		),

		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "code42_connector_action_duration_seconds",
				Help:    "Action duration in seconds, including Code42 API calls",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"action"},
		),

		// errors tracks failures by class (auth, rate_limit, validation, ...)
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "code42_connector_errors_total",
				Help: "Total action errors by action and error type",
			},
			[]string{"action", "error_type"},
		),
	}
}

// WriteTextfile writes all metrics in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func (m *Metrics) recordAction(action string, status Status, duration time.Duration) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, string(status)).Inc()
	m.duration.WithLabelValues(action).Observe(duration.Seconds())
}

func (m *Metrics) recordError(action string, err error) {
	if m == nil || err == nil {
		return
	}
	m.errors.WithLabelValues(action, errorType(err)).Inc()
}

// errorType maps an error to a low-cardinality label.
func errorType(err error) string {
	var apiErr *code42.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsAuthError():
			return "auth"
		case apiErr.IsRateLimited():
			return "rate_limit"
		case apiErr.IsNotFound():
			return "not_found"
		}
	}
	return c42errors.Classify(err)
}
