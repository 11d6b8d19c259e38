package server

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/gaborage/fieldsadmin/trace"
)

// TraceContext copies the request ID and any inbound W3C trace context into
// the request context so outbound HTTP client calls carry them.
func TraceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
			ctx = trace.WithRequestID(ctx, getTraceID(c))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
