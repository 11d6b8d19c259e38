package server

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gaborage/fieldsadmin/config"
	"github.com/gaborage/fieldsadmin/logger"
)

// SetupMiddlewares registers the middleware chain shared by every route.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, cfg *config.Config) {
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(TraceContext())

	e.Use(CORS(cfg.Server.CORSOrigins))

	e.Use(Logger(log, LoggerConfig{
		SkipPaths:            []string{"/health", "/ready"},
		SlowRequestThreshold: time.Second,
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", safeGetRequestID(c)).
				Bytes("stack", stack).
				Msg("Panic recovered")
			return err
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         3600,
	}))

	e.Use(middleware.BodyLimit(DefaultBodyLimit))

	e.Use(Timeout(cfg.Server.Timeout.Write))

	// Proxied responses are passed through as the upstream encoded them.
	proxyPrefix := cfg.Proxy.Prefix
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return proxyPrefix != "" && strings.HasPrefix(c.Request().URL.Path, proxyPrefix)
		},
	}))

	e.Use(RateLimit(cfg.Server.RateLimit))

	e.Use(Timing())
}
