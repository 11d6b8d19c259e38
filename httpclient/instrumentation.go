package httpclient

import (
	"context"
	nethttp "net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/fieldsadmin/logger"
	"github.com/gaborage/fieldsadmin/trace"
)

const instrumentationName = "github.com/gaborage/fieldsadmin/httpclient"

// instruments groups the tracer and metric instruments used by one client.
type instruments struct {
	tracer   oteltrace.Tracer
	attempts metric.Int64Counter
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments(tracer oteltrace.Tracer, meter metric.Meter, log logger.Logger) *instruments {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	inst := &instruments{tracer: tracer}
	var err error
	if inst.attempts, err = meter.Int64Counter("http.client.attempts",
		metric.WithDescription("Network attempts made by the HTTP client, retries included")); err != nil {
		log.Warn().Err(err).Str("instrument", "http.client.attempts").Msg("Failed to create metric instrument")
	}
	if inst.requests, err = meter.Int64Counter("http.client.requests",
		metric.WithDescription("Logical HTTP client calls by outcome")); err != nil {
		log.Warn().Err(err).Str("instrument", "http.client.requests").Msg("Failed to create metric instrument")
	}
	if inst.duration, err = meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of logical HTTP client calls"),
		metric.WithUnit("s")); err != nil {
		log.Warn().Err(err).Str("instrument", "http.client.request.duration").Msg("Failed to create metric instrument")
	}
	return inst
}

func (i *instruments) startSpan(ctx context.Context, method, url string) (context.Context, oteltrace.Span) {
	return i.tracer.Start(ctx, "http.client.request",
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", url),
		))
}

func (i *instruments) recordAttempt(ctx context.Context, method string) {
	if i.attempts != nil {
		i.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("http.request.method", method)))
	}
}

// finish closes the span and records the call outcome.
func (i *instruments) finish(ctx context.Context, span oteltrace.Span, method string, start time.Time, resp *Response, err error) {
	outcome := "success"
	attrs := []attribute.KeyValue{attribute.String("http.request.method", method)}

	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
		attrs = append(attrs, attribute.Int("http.response.status_code", resp.Status))
	}
	if err != nil {
		outcome = "error"
		if clientErr, ok := AsError(err); ok {
			outcome = clientErr.Kind.String()
			if clientErr.Status != 0 && resp == nil {
				span.SetAttributes(attribute.Int("http.response.status_code", clientErr.Status))
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	attrs = append(attrs, attribute.String("outcome", outcome))
	if i.requests != nil {
		i.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if i.duration != nil {
		i.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
	}
}

// propagate copies the request ID and the W3C trace context into h.
func propagate(ctx context.Context, h nethttp.Header) {
	trace.InjectRequestID(ctx, h)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(h))
}
