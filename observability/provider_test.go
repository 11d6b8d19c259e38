package observability

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/gaborage/fieldsadmin/config"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewProviderDisabled(t *testing.T) {
	for _, cfg := range []Config{
		{Enabled: false, Exporter: ExporterStdout},
		{Enabled: true, Exporter: ExporterNone},
	} {
		p, err := NewProvider(cfg)
		require.NoError(t, err)
		assert.IsType(t, &noopProvider{}, p)
		assert.IsType(t, noop.NewTracerProvider(), p.TracerProvider())
		assert.NoError(t, p.ForceFlush(context.Background()))
		assert.NoError(t, p.Shutdown(context.Background()))
	}
}

func TestNewProviderInvalidExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "otlp"})
	assert.ErrorIs(t, err, ErrInvalidExporter)
}

func TestNewProviderInstallsPropagator(t *testing.T) {
	_, err := NewProvider(Config{})
	require.NoError(t, err)

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(context.Background(), carrier)
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestNewProviderStdout(t *testing.T) {
	out := &syncBuffer{}
	p, err := NewProvider(Config{
		Enabled:        true,
		Exporter:       ExporterStdout,
		ServiceName:    "fieldsadmin",
		ServiceVersion: "test",
		Environment:    "development",
		Writer:         out,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
	})

	_, span := p.TracerProvider().Tracer("test").Start(context.Background(), "http.client.request")
	span.End()

	counter, err := p.MeterProvider().Meter("test").Int64Counter("http.client.requests")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, p.ForceFlush(context.Background()))
	assert.Contains(t, out.String(), "http.client.request")
	assert.Contains(t, out.String(), "http.client.requests")
	assert.Contains(t, out.String(), "fieldsadmin")

	require.NoError(t, Shutdown(p, time.Second))
}

func TestShutdownNilProvider(t *testing.T) {
	assert.NoError(t, Shutdown(nil, 0))
}

func TestConfigFrom(t *testing.T) {
	cfg := &config.Config{
		App:           config.AppConfig{Name: "fieldsadmin", Version: "1.0.0", Env: "production"},
		Observability: config.ObservabilityConfig{Enabled: true, Exporter: "stdout"},
	}
	assert.Equal(t, Config{
		Enabled:        true,
		Exporter:       "stdout",
		ServiceName:    "fieldsadmin",
		ServiceVersion: "1.0.0",
		Environment:    "production",
	}, ConfigFrom(cfg))
}
