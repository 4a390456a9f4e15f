package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tombee/code42-connector/internal/tracing"

// RoundTripper wraps outbound requests in client spans and adds the
// correlation ID header.
type RoundTripper struct {
	Base   http.RoundTripper
	Tracer trace.Tracer
}

// WrapRoundTripper returns base wrapped with a RoundTripper that uses the
// global tracer provider. It matches transport.HTTPTransportConfig.WrapRoundTripper.
func WrapRoundTripper(base http.RoundTripper) http.RoundTripper {
	return &RoundTripper{Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	tracer := t.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	ctx, span := tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("server.address", req.URL.Host),
			attribute.String("url.path", req.URL.Path),
		),
	)
	defer span.End()

	// RoundTrippers must not modify the caller's request
	out := req.Clone(ctx)
	if id := FromContext(ctx); id != "" {
		out.Header.Set(HeaderCorrelationID, id.String())
		span.SetAttributes(attribute.String("correlation_id", id.String()))
	}

	resp, err := base.RoundTrip(out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}
