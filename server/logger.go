package server

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gaborage/fieldsadmin/logger"
)

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// SkipPaths are not logged, typically health checks.
	SkipPaths []string

	// SlowRequestThreshold marks slower requests with result_code WARN.
	// Zero disables the check.
	SlowRequestThreshold time.Duration
}

// Logger emits one summary log per request. 5xx responses log at error
// level and 4xx at warn. A request whose handler logged a warning keeps its
// level but reports result_code WARN.
func Logger(log logger.Logger, cfg LoggerConfig) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			var escalated atomic.Bool
			ctx := logger.WithSeverityHook(c.Request().Context(), func(level zerolog.Level) {
				if level >= zerolog.WarnLevel {
					escalated.Store(true)
				}
			})
			c.SetRequest(c.Request().WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}
			latency := time.Since(start)
			status := c.Response().Status

			level, resultCode := determineSeverity(status, latency, cfg.SlowRequestThreshold, err)
			if resultCode == "INFO" && escalated.Load() {
				resultCode = "WARN"
			}
			event := createLogEvent(log.WithContext(c.Request().Context()), level)
			if err != nil {
				event = event.Err(err)
			}

			req := c.Request()
			event.
				Str("request_id", safeGetRequestID(c)).
				Str("http.request.method", req.Method).
				Int("http.response.status_code", status).
				Dur("http.server.request.duration", latency).
				Str("url.path", req.URL.Path).
				Str("http.route", c.Path()).
				Str("client.address", c.RealIP()).
				Str("user_agent.original", req.UserAgent()).
				Str("result_code", resultCode).
				Msg(fmt.Sprintf("%s %s completed in %s with status %d", req.Method, req.URL.Path, latency, status))

			return nil
		}
	}
}

func determineSeverity(status int, latency, threshold time.Duration, err error) (level, resultCode string) {
	switch {
	case status >= 500 || (err != nil && status == 0):
		return "error", "ERROR"
	case status >= 400:
		return "warn", "WARN"
	case threshold > 0 && latency > threshold:
		return "info", "WARN"
	default:
		return "info", "INFO"
	}
}

func createLogEvent(log logger.Logger, level string) logger.LogEvent {
	switch level {
	case "error":
		return log.Error()
	case "warn":
		return log.Warn()
	default:
		return log.Info()
	}
}
