package httpclient

import (
	"context"
	"encoding/json"
	nethttp "net/http"
)

// DoJSON performs a call and decodes the raw body into T. An empty body or a
// 204 leaves T at its zero value, as does a body that does not fit T when
// LenientJSON is set. On error the response is only reachable through the
// returned *Error.
func DoJSON[T any](ctx context.Context, c Client, method, url string, opts *RequestOptions) (T, *Response, error) {
	var zero T
	resp, err := c.Request(ctx, url, withMethod(opts, method, nil, false))
	if err != nil {
		return zero, nil, err
	}
	if resp.Status == nethttp.StatusNoContent || len(resp.Body) == 0 {
		return zero, resp, nil
	}

	var out T
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		if resp.Config.LenientJSON {
			return zero, resp, nil
		}
		return zero, nil, NewDecodeError(resp, err)
	}
	return out, resp, nil
}

// GetJSON performs a GET and decodes the body into T
func GetJSON[T any](ctx context.Context, c Client, url string, opts *RequestOptions) (T, *Response, error) {
	return DoJSON[T](ctx, c, nethttp.MethodGet, url, opts)
}

// PostJSON performs a POST with body and decodes the response into T
func PostJSON[T any](ctx context.Context, c Client, url string, body any, opts *RequestOptions) (T, *Response, error) {
	o := withMethod(opts, nethttp.MethodPost, body, true)
	return DoJSON[T](ctx, c, nethttp.MethodPost, url, o)
}
