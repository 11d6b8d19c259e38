package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/gaborage/fieldsadmin/httpclient"
	"github.com/gaborage/fieldsadmin/logger"
	"github.com/gaborage/fieldsadmin/server"
)

type testerHandler struct {
	client httpclient.Client
	log    logger.Logger
	// tokenHost covers the hosts that receive the caller's API token
	tokenHost httpclient.Proxy
}

const accessTokenHeader = "x-access-token"

type testerRequest struct {
	Method  string            `json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE"`
	URL     string            `json:"url" validate:"required"`
	Headers map[string]string `json:"headers"`
	// Body must be JSON when present.
	Body                      json.RawMessage `json:"body"`
	Params                    map[string]any  `json:"params"`
	EvaluateAllStatesAsErrors *bool           `json:"evaluateAllStatesAsErrors"`
	TimeoutMs                 int             `json:"timeoutMs" validate:"min=0"`
	Retries                   *int            `json:"retries" validate:"omitempty,min=0,max=10"`
}

// TesterResponse is either the upstream response or a description of the
// failure. Failures are still delivered with status 200.
type TesterResponse struct {
	Status     int                 `json:"status,omitempty"`
	StatusText string              `json:"statusText,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Stats      *TesterStats        `json:"stats,omitempty"`

	Error    bool            `json:"error,omitempty"`
	Message  string          `json:"message,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	Response *TesterResponse `json:"response,omitempty"`
}

// TesterStats reports timing for a tester call
type TesterStats struct {
	ElapsedMs int64 `json:"elapsedMs"`
	Attempts  int   `json:"attempts"`
	CallCount int64 `json:"callCount"`
}

func (h *testerHandler) run(req testerRequest, ctx server.HandlerContext) (TesterResponse, server.IAPIError) {
	opts := &httpclient.RequestOptions{
		Method:                    req.Method,
		Headers:                   h.headers(req, CurrentSession(ctx.Echo).Token),
		Params:                    req.Params,
		Retries:                   req.Retries,
		Timeout:                   time.Duration(req.TimeoutMs) * time.Millisecond,
		EvaluateAllStatesAsErrors: true,
	}
	if req.EvaluateAllStatesAsErrors != nil {
		opts.EvaluateAllStatesAsErrors = *req.EvaluateAllStatesAsErrors
	}

	body := bytes.TrimSpace(req.Body)
	if len(body) > 0 && !bytes.Equal(body, []byte("null")) {
		if !json.Valid(body) {
			return TesterResponse{}, server.NewBadRequestError("Body must be valid JSON")
		}
		if req.Method != "GET" && req.Method != "DELETE" {
			opts.Body = json.RawMessage(body)
		}
	}

	resp, err := h.client.Request(ctx.Context(), req.URL, opts)
	if err != nil {
		return failureResponse(err), nil
	}
	return successResponse(resp), nil
}

// headers returns the caller's headers plus the session token when the
// target is one of the token hosts and the caller did not set one.
func (h *testerHandler) headers(req testerRequest, token string) map[string]string {
	if token == "" || !h.tokenHost.Covers(req.URL) {
		return req.Headers
	}
	for k := range req.Headers {
		if strings.EqualFold(k, accessTokenHeader) {
			return req.Headers
		}
	}
	out := make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		out[k] = v
	}
	out[accessTokenHeader] = token
	return out
}

func successResponse(resp *httpclient.Response) TesterResponse {
	return TesterResponse{
		Status:     resp.Status,
		StatusText: resp.StatusText,
		Headers:    resp.Headers,
		Data:       resp.Data,
		Stats: &TesterStats{
			ElapsedMs: resp.Stats.ElapsedTime.Milliseconds(),
			Attempts:  resp.Stats.Attempts,
			CallCount: resp.Stats.CallCount,
		},
	}
}

func failureResponse(err error) TesterResponse {
	out := TesterResponse{Error: true, Message: err.Error()}
	if he, ok := httpclient.AsError(err); ok {
		out.Message = he.Message
		out.Status = he.Status
		out.Kind = he.Kind.String()
		if he.Response != nil {
			r := successResponse(he.Response)
			out.Response = &r
		}
	}
	return out
}
