package httpclient

import (
	"errors"
	"fmt"
	nethttp "net/http"
	"time"
)

// ErrorKind classifies a failed call
type ErrorKind int

const (
	// KindNetwork is a transport failure before any response arrived. Status 0.
	KindNetwork ErrorKind = iota
	// KindTimeout means the call did not finish within its timeout. Status 408.
	KindTimeout
	// KindHTTP is a response whose status was classified as failure.
	KindHTTP
	// KindDecode is a successful response whose body could not be decoded.
	KindDecode
	// KindCanceled means the caller's context was cancelled. Status 0.
	KindCanceled
	// KindValidation is a request that could not be built. Status 0.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	case KindDecode:
		return "decode"
	case KindCanceled:
		return "canceled"
	case KindValidation:
		return "validation"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the single error type returned by Client. Response is set when
// the server replied.
type Error struct {
	Kind     ErrorKind
	Status   int
	Message  string
	Response *Response
	Field    string
	wrapped  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status: %d)", msg, e.Status)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field: %s)", msg, e.Field)
	}
	if e.wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.wrapped)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) *Error {
	return &Error{Kind: KindNetwork, Message: message, wrapped: wrapped}
}

// NewTimeoutError creates the error returned when a call outlives its timeout
func NewTimeoutError(timeout time.Duration, wrapped error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Status:  nethttp.StatusRequestTimeout,
		Message: fmt.Sprintf("request cancelled by timeout (timeout: %v)", timeout),
		wrapped: wrapped,
	}
}

// NewHTTPError creates an error carrying the failed response
func NewHTTPError(resp *Response) *Error {
	return &Error{
		Kind:     KindHTTP,
		Status:   resp.Status,
		Message:  fmt.Sprintf("request failed with status %d", resp.Status),
		Response: resp,
	}
}

// NewDecodeError creates an error for a body that could not be decoded
func NewDecodeError(resp *Response, wrapped error) *Error {
	e := &Error{Kind: KindDecode, Message: "failed to decode response body", Response: resp, wrapped: wrapped}
	if resp != nil {
		e.Status = resp.Status
	}
	return e
}

// NewCanceledError creates the error returned when the caller gives up
func NewCanceledError(wrapped error) *Error {
	return &Error{Kind: KindCanceled, Message: "request cancelled", wrapped: wrapped}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// AsError extracts the *Error from err's chain
func AsError(err error) (*Error, bool) {
	var clientErr *Error
	if errors.As(err, &clientErr) {
		return clientErr, true
	}
	return nil, false
}

// IsKind checks if an error is of a specific kind
func IsKind(err error, kind ErrorKind) bool {
	clientErr, ok := AsError(err)
	return ok && clientErr.Kind == kind
}

// IsStatus checks if an error carries a specific status code
func IsStatus(err error, status int) bool {
	clientErr, ok := AsError(err)
	return ok && clientErr.Status == status
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// isOK accepts 2xx and any 3xx that was not followed. strict narrows it to 2xx.
func isOK(statusCode int, strict bool) bool {
	if strict {
		return IsSuccessStatus(statusCode)
	}
	return statusCode >= 200 && statusCode < 400
}
