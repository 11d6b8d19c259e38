// Package server provides the echo HTTP server: middleware, the response
// envelope, typed handler registration and the same-origin reverse proxy.
package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/fieldsadmin/config"
	"github.com/gaborage/fieldsadmin/logger"
)

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck func(ctx context.Context) error

// Server wraps an echo instance with its configuration.
type Server struct {
	echo     *echo.Echo
	cfg      *config.Config
	logger   logger.Logger
	registry *HandlerRegistry
	checks   map[string]ReadinessCheck
}

// New creates the echo instance, installs middleware and the error handler,
// and registers /health, /ready and the reverse proxy when enabled.
func New(cfg *config.Config, log logger.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, cfg, log)
	}

	SetupMiddlewares(e, log, cfg)

	s := &Server{
		echo:     e,
		cfg:      cfg,
		logger:   log,
		registry: NewHandlerRegistry(cfg),
		checks:   make(map[string]ReadinessCheck),
	}

	e.GET("/health", s.healthCheck)
	e.GET("/ready", s.readyCheck)

	if cfg.Proxy.Enabled {
		if err := RegisterProxy(e, cfg.Proxy, log); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Echo returns the underlying echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Registry returns the handler registry for typed route registration
func (s *Server) Registry() *HandlerRegistry {
	return s.registry
}

// API returns the /api route group
func (s *Server) API(middleware ...echo.MiddlewareFunc) *echo.Group {
	return s.echo.Group("/api", middleware...)
}

// AddReadinessCheck registers a check consulted by /ready. Not safe to call
// after Start.
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Msg("Starting server...")

	srv := &http.Server{
		Addr:         addr,
		ReadTimeout:  orDefault(s.cfg.Server.Timeout.Read, DefaultReadTimeout),
		WriteTimeout: orDefault(s.cfg.Server.Timeout.Write, DefaultWriteTimeout),
		IdleTimeout:  orDefault(s.cfg.Server.Timeout.Idle, DefaultIdleTimeout),
	}

	if err := s.echo.StartServer(srv); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (s *Server) readyCheck(c echo.Context) error {
	failures := make(map[string]string)
	for name, check := range s.checks {
		if err := check(c.Request().Context()); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": failures,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func customErrorHandler(err error, c echo.Context, cfg *config.Config, log logger.Logger) {
	if c.Response().Committed {
		return
	}

	var apiErr IAPIError
	if goerrors.As(err, &apiErr) {
		_ = formatErrorResponse(c, apiErr, cfg)
		return
	}

	status := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if goerrors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		log.WithContext(c.Request().Context()).Error().Err(err).Msg("Unhandled error")
		if !isDevelopmentEnv(cfg.App.Env) {
			msg = "An error occurred while processing your request"
		}
	}

	base := NewBaseAPIError(statusToErrorCode(status), msg, status)
	if isDevelopmentEnv(cfg.App.Env) {
		_ = base.WithDetails("error", err.Error())
	}
	_ = formatErrorResponse(c, base, cfg)
}

func statusToErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case http.StatusBadGateway:
		return "BAD_GATEWAY"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
