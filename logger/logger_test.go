package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMessage = "test message"

func newBufferLogger(level string) (*ZeroLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithWriter(&buf, level, false, DefaultFilterConfig()), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{name: "debug", level: "debug", expected: zerolog.DebugLevel},
		{name: "warn", level: "warn", expected: zerolog.WarnLevel},
		{name: "invalid_defaults_to_info", level: "loud", expected: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newBufferLogger(tt.level)
			require.NotNil(t, l.filter)
			assert.Equal(t, tt.expected, l.zlog.GetLevel())
		})
	}
}

func TestLogEventFields(t *testing.T) {
	l, buf := newBufferLogger("debug")

	l.Info().
		Str("method", "GET").
		Int("status", 200).
		Int64("call_count", 3).
		Bool("proxied", true).
		Dur("elapsed", 1500*time.Millisecond).
		Err(errors.New("boom")).
		Msg(testMessage)

	entry := decodeLine(t, buf)
	assert.Equal(t, testMessage, entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.EqualValues(t, 200, entry["status"])
	assert.EqualValues(t, 3, entry["call_count"])
	assert.Equal(t, true, entry["proxied"])
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry, "caller")
}

func TestLogEventMasksAccessToken(t *testing.T) {
	l, buf := newBufferLogger("info")

	l.Info().
		Str("x-access-token", "1330256.secret").
		Interface("headers", map[string]string{"X-Access-Token": "1330256.secret", "Accept": "application/json"}).
		Msg(testMessage)

	out := buf.String()
	assert.NotContains(t, out, "1330256.secret")
	assert.Contains(t, out, "application/json")
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger("warn")

	l.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	l.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestWithFieldsFiltersValues(t *testing.T) {
	l, buf := newBufferLogger("info")

	child := l.WithFields(map[string]any{"component": "httpclient", "password": "hunter2"})
	child.Info().Msg(testMessage)

	entry := decodeLine(t, buf)
	assert.Equal(t, "httpclient", entry["component"])
	assert.Equal(t, DefaultMaskValue, entry["password"])
}

func TestWithContextPropagatesSeverityHook(t *testing.T) {
	l, _ := newBufferLogger("debug")

	var seen []zerolog.Level
	ctx := WithSeverityHook(context.Background(), func(level zerolog.Level) {
		seen = append(seen, level)
	})

	scoped := l.WithContext(ctx)
	scoped.Info().Msg("info does not escalate")
	scoped.Warn().Msg("warn escalates")
	scoped.Error().Msg("error escalates")

	assert.Equal(t, []zerolog.Level{zerolog.WarnLevel, zerolog.ErrorLevel}, seen)
}

func TestWithContextNonContextReturnsSameLogger(t *testing.T) {
	l, _ := newBufferLogger("info")
	assert.Same(t, l, l.WithContext("not a context"))
}

func TestNopLoggerDiscards(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Error().Str("k", "v").Msg(testMessage)
	})
}
