package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gaborage/fieldsadmin/config"
	"github.com/gaborage/fieldsadmin/logger"
)

// RegisterProxy forwards everything under cfg.Prefix to cfg.Upstream with the
// prefix stripped. Query strings and headers, x-access-token included, pass
// through unchanged. The Host header is set to the upstream host.
func RegisterProxy(e *echo.Echo, cfg config.ProxyConfig, log logger.Logger) error {
	prefix := strings.TrimRight(cfg.Prefix, "/")
	if prefix == "" {
		return fmt.Errorf("proxy prefix is required")
	}
	target, err := url.Parse(cfg.Upstream)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return fmt.Errorf("invalid proxy upstream %q", cfg.Upstream)
	}

	setHost := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Request().Host = target.Host
			return next(c)
		}
	}

	proxy := middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: target}}),
		Rewrite: map[string]string{
			prefix:        "/",
			prefix + "/*": "/$1",
		},
		ErrorHandler: func(c echo.Context, err error) error {
			log.WithContext(c.Request().Context()).Warn().
				Err(err).
				Str("upstream", target.String()).
				Str("path", c.Request().URL.Path).
				Msg("Proxy request failed")
			return NewBadGatewayError("Upstream request failed")
		},
	})

	handler := func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	e.Any(prefix, handler, setHost, proxy)
	e.Any(prefix+"/*", handler, setHost, proxy)

	log.Info().
		Str("prefix", prefix).
		Str("upstream", target.String()).
		Msg("Reverse proxy registered")
	return nil
}
