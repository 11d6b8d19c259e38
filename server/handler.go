package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/gaborage/fieldsadmin/config"
)

// APIResponse is the envelope every API handler responds with.
type APIResponse struct {
	Data  any               `json:"data,omitempty"`
	Error *APIErrorResponse `json:"error,omitempty"`
	Meta  map[string]any    `json:"meta"`
}

// APIErrorResponse is the error part of the envelope.
type APIErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HandlerFunc is a handler that only deals with business logic: the request
// is already bound and validated, and the result is wrapped in the envelope.
type HandlerFunc[T any, R any] func(request T, ctx HandlerContext) (R, IAPIError)

// HandlerContext gives handlers access to the echo context when needed.
type HandlerContext struct {
	Echo   echo.Context
	Config *config.Config
}

// Context returns the request context
func (h HandlerContext) Context() context.Context {
	return h.Echo.Request().Context()
}

// RequestBinder binds path parameters, query parameters and the JSON body.
type RequestBinder struct {
	binder echo.DefaultBinder
}

func NewRequestBinder() *RequestBinder { return &RequestBinder{} }

// Bind fills i from the path, then from the query for GET, HEAD and DELETE,
// then from the body. A request without a body, including one whose length
// is unknown but whose Body is http.NoBody, binds nothing from it.
func (b *RequestBinder) Bind(i any, c echo.Context) error {
	if err := b.binder.BindPathParams(c, i); err != nil {
		return err
	}

	req := c.Request()
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		if err := b.binder.BindQueryParams(c, i); err != nil {
			return err
		}
		return nil
	}

	if req.ContentLength == 0 || req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	return b.binder.BindBody(c, i)
}

// WrapHandler adapts a HandlerFunc to echo, handling binding, validation,
// and response formatting.
func WrapHandler[T any, R any](
	handlerFunc HandlerFunc[T, R],
	binder *RequestBinder,
	cfg *config.Config,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		var request T

		if err := binder.Bind(&request, c); err != nil {
			return formatErrorResponse(c, NewBadRequestError("Invalid request data").WithDetails("error", err.Error()), cfg)
		}

		if err := c.Validate(&request); err != nil {
			vErr := NewBadRequestError("Request validation failed")
			var ve *ValidationError
			if errors.As(err, &ve) {
				_ = vErr.WithDetails("validationErrors", ve.Errors)
			} else {
				_ = vErr.WithDetails("error", err.Error())
			}
			return formatErrorResponse(c, vErr, cfg)
		}

		response, apiErr := handlerFunc(request, HandlerContext{Echo: c, Config: cfg})
		if apiErr != nil {
			return formatErrorResponse(c, apiErr, cfg)
		}

		if rl, ok := any(response).(ResultLike); ok {
			status, headers, data := rl.ResultMeta()
			return formatSuccessResponseWithStatus(c, data, status, headers)
		}
		return formatSuccessResponseWithStatus(c, response, http.StatusOK, nil)
	}
}

// ResultLike lets a handler choose the success status and headers.
type ResultLike interface {
	ResultMeta() (status int, headers http.Header, data any)
}

// Result wraps a payload with a custom status and headers.
type Result[R any] struct {
	Data    R
	Status  int
	Headers http.Header
}

func (r Result[R]) ResultMeta() (status int, headers http.Header, data any) {
	return r.Status, r.Headers, r.Data
}

// NoContentResult is a 204 with no body
type NoContentResult struct{}

func (NoContentResult) ResultMeta() (status int, headers http.Header, data any) {
	return http.StatusNoContent, nil, nil
}

// Created returns a 201 result
func Created[R any](data R) Result[R] {
	return Result[R]{Data: data, Status: http.StatusCreated}
}

func NoContent() NoContentResult { return NoContentResult{} }

func formatSuccessResponseWithStatus(c echo.Context, data any, status int, headers http.Header) error {
	if status == 0 {
		status = http.StatusOK
	}
	for k, vals := range headers {
		for _, v := range vals {
			c.Response().Header().Add(k, v)
		}
	}
	if status == http.StatusNoContent {
		return c.NoContent(http.StatusNoContent)
	}
	ensureTraceParentHeader(c)
	return c.JSON(status, APIResponse{Data: data, Meta: responseMeta(c)})
}

// formatErrorResponse writes apiErr in the envelope. Details are included
// only in development.
func formatErrorResponse(c echo.Context, apiErr IAPIError, cfg *config.Config) error {
	errorResp := &APIErrorResponse{
		Code:    apiErr.ErrorCode(),
		Message: apiErr.Message(),
	}
	if cfg != nil && isDevelopmentEnv(cfg.App.Env) {
		if details := apiErr.Details(); len(details) > 0 {
			errorResp.Details = details
		}
	}

	ensureTraceParentHeader(c)
	return c.JSON(apiErr.HTTPStatus(), APIResponse{Error: errorResp, Meta: responseMeta(c)})
}

func responseMeta(c echo.Context) map[string]any {
	return map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"traceId":   getTraceID(c),
	}
}

// getTraceID returns the request ID, generating one when the request has none.
func getTraceID(c echo.Context) string {
	if requestID := c.Request().Header.Get(echo.HeaderXRequestID); requestID != "" {
		return requestID
	}
	if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
		return requestID
	}
	newID := uuid.New().String()
	c.Response().Header().Set(echo.HeaderXRequestID, newID)
	return newID
}

// ensureTraceParentHeader echoes the active W3C trace context on the response.
func ensureTraceParentHeader(c echo.Context) {
	if c.Response().Header().Get(HeaderTraceParent) != "" {
		return
	}
	otel.GetTextMapPropagator().Inject(c.Request().Context(), propagation.HeaderCarrier(c.Response().Header()))
}

func isDevelopmentEnv(env string) bool {
	return env == config.EnvDevelopment || env == "dev"
}

// RouteRegistrar is satisfied by *echo.Echo and *echo.Group.
type RouteRegistrar interface {
	Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route
}

// HandlerRegistry holds what WrapHandler needs for every route.
type HandlerRegistry struct {
	binder *RequestBinder
	cfg    *config.Config
}

func NewHandlerRegistry(cfg *config.Config) *HandlerRegistry {
	return &HandlerRegistry{
		binder: NewRequestBinder(),
		cfg:    cfg,
	}
}

// RegisterHandler wraps handler and adds it to r.
func RegisterHandler[T any, R any](
	hr *HandlerRegistry,
	r RouteRegistrar,
	method, path string,
	handler HandlerFunc[T, R],
	middleware ...echo.MiddlewareFunc,
) {
	r.Add(method, path, WrapHandler(handler, hr.binder, hr.cfg), middleware...)
}

func GET[T any, R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[T, R], m ...echo.MiddlewareFunc) {
	RegisterHandler(hr, r, http.MethodGet, path, handler, m...)
}

func POST[T any, R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[T, R], m ...echo.MiddlewareFunc) {
	RegisterHandler(hr, r, http.MethodPost, path, handler, m...)
}

func PUT[T any, R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[T, R], m ...echo.MiddlewareFunc) {
	RegisterHandler(hr, r, http.MethodPut, path, handler, m...)
}

func PATCH[T any, R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[T, R], m ...echo.MiddlewareFunc) {
	RegisterHandler(hr, r, http.MethodPatch, path, handler, m...)
}

func DELETE[T any, R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[T, R], m ...echo.MiddlewareFunc) {
	RegisterHandler(hr, r, http.MethodDelete, path, handler, m...)
}
