package server

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
)

// Timeout bounds each request with a context deadline. The response writer is
// left in place, so handlers that ignore the deadline still write normally; a
// handler that returns after the deadline fired yields a 503 envelope.
func Timeout(duration time.Duration) echo.MiddlewareFunc {
	if duration <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			parent := c.Request().Context()
			if err := parent.Err(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(parent, duration)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Response().Committed {
				return NewServiceUnavailableError("Request timed out")
			}
			return err
		}
	}
}
