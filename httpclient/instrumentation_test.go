package httpclient

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gaborage/fieldsadmin/logger"
)

func sumCounter(t *testing.T, rm metricdata.ResourceMetrics, name string) map[string]int64 {
	t.Helper()
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				out[outcome.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestInstrumentationRecordsSpansAndMetrics(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	var calls atomic.Int32
	failing := NewBuilder(logger.Nop()).
		WithRetries(2, time.Millisecond).
		WithTransport(failingTransport(&calls)).
		WithTracer(tp.Tracer("test")).
		WithMeter(mp.Meter("test")).
		Build()
	_, err := failing.Get(context.Background(), testItemsURL, nil)
	require.Error(t, err)

	ok := NewBuilder(logger.Nop()).
		WithTransport(&recorder{body: `{}`}).
		WithTracer(tp.Tracer("test")).
		WithMeter(mp.Meter("test")).
		Build()
	_, err = ok.Get(context.Background(), testItemsURL, nil)
	require.NoError(t, err)

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "http.client.request", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.NotEqual(t, codes.Error, ended[1].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	attempts := sumCounter(t, rm, "http.client.attempts")
	var totalAttempts int64
	for _, v := range attempts {
		totalAttempts += v
	}
	assert.Equal(t, int64(4), totalAttempts)

	requests := sumCounter(t, rm, "http.client.requests")
	assert.Equal(t, int64(1), requests["network"])
	assert.Equal(t, int64(1), requests["success"])
}
