package server

import (
	"fmt"
	"maps"
	"net/http"
)

// IAPIError is an error that renders as the error part of the response envelope.
type IAPIError interface {
	ErrorCode() string
	Message() string
	HTTPStatus() int
	Details() map[string]any
}

// BaseAPIError is the common IAPIError implementation.
type BaseAPIError struct {
	code       string
	message    string
	httpStatus int
	details    map[string]any
}

func NewBaseAPIError(code, message string, httpStatus int) *BaseAPIError {
	return &BaseAPIError{
		code:       code,
		message:    message,
		httpStatus: httpStatus,
		details:    make(map[string]any),
	}
}

func (e *BaseAPIError) ErrorCode() string { return e.code }

func (e *BaseAPIError) Message() string { return e.message }

func (e *BaseAPIError) HTTPStatus() int { return e.httpStatus }

// Details returns a copy of the error details
func (e *BaseAPIError) Details() map[string]any {
	if e.details == nil {
		return nil
	}
	cp := make(map[string]any, len(e.details))
	maps.Copy(cp, e.details)
	return cp
}

// WithDetails adds a detail entry, shown only in development.
func (e *BaseAPIError) WithDetails(key string, value any) *BaseAPIError {
	e.details[key] = value
	return e
}

func (e *BaseAPIError) Error() string {
	if e == nil {
		return ""
	}
	if e.code == "" {
		return e.message
	}
	return e.code + ": " + e.message
}

func NewNotFoundError(resource string) *BaseAPIError {
	return NewBaseAPIError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewConflictError(message string) *BaseAPIError {
	return NewBaseAPIError("CONFLICT", message, http.StatusConflict)
}

func NewUnauthorizedError(message string) *BaseAPIError {
	if message == "" {
		message = "Authentication required"
	}
	return NewBaseAPIError("UNAUTHORIZED", message, http.StatusUnauthorized)
}

func NewForbiddenError(message string) *BaseAPIError {
	if message == "" {
		message = "Access denied"
	}
	return NewBaseAPIError("FORBIDDEN", message, http.StatusForbidden)
}

func NewInternalServerError(message string) *BaseAPIError {
	if message == "" {
		message = "An internal error occurred"
	}
	return NewBaseAPIError("INTERNAL_ERROR", message, http.StatusInternalServerError)
}

func NewBadRequestError(message string) *BaseAPIError {
	return NewBaseAPIError("BAD_REQUEST", message, http.StatusBadRequest)
}

// NewBadGatewayError reports a failure of the upstream custom-fields API
func NewBadGatewayError(message string) *BaseAPIError {
	if message == "" {
		message = "Upstream service failed"
	}
	return NewBaseAPIError("BAD_GATEWAY", message, http.StatusBadGateway)
}

func NewServiceUnavailableError(message string) *BaseAPIError {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return NewBaseAPIError("SERVICE_UNAVAILABLE", message, http.StatusServiceUnavailable)
}

func NewTooManyRequestsError(message string) *BaseAPIError {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return NewBaseAPIError("TOO_MANY_REQUESTS", message, http.StatusTooManyRequests)
}

var _ IAPIError = (*BaseAPIError)(nil)
