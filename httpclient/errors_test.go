package httpclient

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	resp := &Response{Status: 404, StatusText: "Not Found"}

	tests := []struct {
		name       string
		err        *Error
		kind       ErrorKind
		status     int
		hasResp    bool
		msgContain string
	}{
		{name: "network", err: NewNetworkError("request execution failed", cause), kind: KindNetwork, status: 0, msgContain: "network error: request execution failed"},
		{name: "timeout", err: NewTimeoutError(2*time.Second, cause), kind: KindTimeout, status: 408, msgContain: "request cancelled by timeout"},
		{name: "http", err: NewHTTPError(resp), kind: KindHTTP, status: 404, hasResp: true, msgContain: "status 404"},
		{name: "decode", err: NewDecodeError(resp, cause), kind: KindDecode, status: 404, hasResp: true, msgContain: "decode error"},
		{name: "canceled", err: NewCanceledError(cause), kind: KindCanceled, status: 0, msgContain: "canceled error"},
		{name: "validation", err: NewValidationError("URL cannot be empty", "url"), kind: KindValidation, status: 0, msgContain: "(field: url)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.hasResp, tt.err.Response != nil)
			assert.Contains(t, tt.err.Error(), tt.msgContain)
			assert.True(t, IsKind(tt.err, tt.kind))
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := fmt.Errorf("load fields: %w", NewNetworkError("connection lost", cause))

	assert.ErrorIs(t, err, cause)

	clientErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, clientErr.Kind)
	assert.True(t, IsKind(err, KindNetwork))
	assert.False(t, IsKind(err, KindTimeout))
}

func TestIsStatus(t *testing.T) {
	assert.False(t, IsStatus(nil, 404))
	assert.True(t, IsStatus(NewHTTPError(&Response{Status: 404}), 404))
	assert.False(t, IsStatus(NewHTTPError(&Response{Status: 500}), 404))
	assert.True(t, IsStatus(NewTimeoutError(time.Second, nil), 408))
	assert.False(t, IsStatus(errors.New("plain"), 0))
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		lax    bool
		strict bool
	}{
		{199, false, false},
		{200, true, true},
		{204, true, true},
		{301, true, false},
		{304, true, false},
		{399, true, false},
		{400, false, false},
		{500, false, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			assert.Equal(t, tt.lax, isOK(tt.status, false))
			assert.Equal(t, tt.strict, isOK(tt.status, true))
		})
	}
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "ErrorKind(99)", ErrorKind(99).String())
}
