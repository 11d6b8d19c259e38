package server

import "github.com/labstack/echo/v4"

// safeGetRequestID extracts the request ID from the response, falling back to
// the request header when the response is unavailable.
func safeGetRequestID(c echo.Context) string {
	if resp := c.Response(); resp != nil {
		if id := resp.Header().Get(echo.HeaderXRequestID); id != "" {
			return id
		}
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
