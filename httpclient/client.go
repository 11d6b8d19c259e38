package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	nethttp "net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/fieldsadmin/logger"
	"github.com/gaborage/fieldsadmin/trace"
)

const (
	// DefaultTimeout is the default timeout for a whole call
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retries after a transport failure
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the fixed delay between retries
	DefaultRetryDelay = 1 * time.Second
)

// client implements the Client interface
type client struct {
	httpClient   *nethttp.Client
	logger       logger.Logger
	retryDelay   time.Duration
	proxy        Proxy
	interceptors []RequestInterceptor
	inst         *instruments
	callCount    atomic.Int64

	mu           sync.RWMutex
	baseURL      string
	headers      map[string]string
	timeout      time.Duration
	retries      int
	proxyEnabled bool
}

// defaults is the immutable view of client state a single call works with.
type defaults struct {
	baseURL      string
	headers      map[string]string
	timeout      time.Duration
	retries      int
	proxyEnabled bool
}

// NewClient creates a client with default configuration and the default proxy
// policy. DefaultProxy has no Origin, so the rewrite stays inert until one is
// set with WithProxy; proxied domains are then called directly.
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the client
type Builder struct {
	log             logger.Logger
	baseURL         string
	timeout         time.Duration
	retries         int
	retryDelay      time.Duration
	headers         map[string]string
	proxy           Proxy
	proxyEnabled    bool
	followRedirects bool
	httpClient      *nethttp.Client
	transport       nethttp.RoundTripper
	interceptors    []RequestInterceptor
	tracer          oteltrace.Tracer
	meter           metric.Meter
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		log:             log,
		timeout:         DefaultTimeout,
		retries:         DefaultMaxRetries,
		retryDelay:      DefaultRetryDelay,
		headers:         make(map[string]string),
		proxy:           DefaultProxy(),
		proxyEnabled:    true,
		followRedirects: true,
	}
}

// WithBaseURL sets the prefix for relative request paths
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.baseURL = baseURL
	return b
}

// WithTimeout sets the default timeout for a whole call
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithRetries sets the retry count and the fixed delay between attempts
func (b *Builder) WithRetries(retries int, retryDelay time.Duration) *Builder {
	b.retries = retries
	b.retryDelay = retryDelay
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	setHeader(b.headers, key, value)
	return b
}

// WithProxy replaces the proxy policy
func (b *Builder) WithProxy(p Proxy, enabled bool) *Builder {
	b.proxy = p
	b.proxyEnabled = enabled
	return b
}

// WithFollowRedirects controls whether 3xx responses are followed
func (b *Builder) WithFollowRedirects(follow bool) *Builder {
	b.followRedirects = follow
	return b
}

// WithHTTPClient uses hc for the exchanges. Its Timeout should be zero
// since the call timeout is enforced through the context.
func (b *Builder) WithHTTPClient(hc *nethttp.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithTransport sets the round tripper of the underlying http.Client
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.interceptors = append(b.interceptors, interceptor)
	return b
}

// WithTracer sets the tracer used for per-call spans. Default: the global provider.
func (b *Builder) WithTracer(t oteltrace.Tracer) *Builder {
	b.tracer = t
	return b
}

// WithMeter sets the meter used for call metrics. Default: the global provider.
func (b *Builder) WithMeter(m metric.Meter) *Builder {
	b.meter = m
	return b
}

// Build creates the client with the configured options
func (b *Builder) Build() Client {
	hc := b.httpClient
	if hc == nil {
		hc = &nethttp.Client{}
	} else {
		copied := *hc
		hc = &copied
	}
	if b.transport != nil {
		hc.Transport = b.transport
	}
	if !b.followRedirects {
		hc.CheckRedirect = func(*nethttp.Request, []*nethttp.Request) error {
			return nethttp.ErrUseLastResponse
		}
	}

	return &client{
		httpClient:   hc,
		logger:       b.log,
		retryDelay:   b.retryDelay,
		proxy:        b.proxy,
		interceptors: append([]RequestInterceptor(nil), b.interceptors...),
		inst:         newInstruments(b.tracer, b.meter, b.log),
		baseURL:      b.baseURL,
		headers:      maps.Clone(b.headers),
		timeout:      b.timeout,
		retries:      b.retries,
		proxyEnabled: b.proxyEnabled,
	}
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, url, withMethod(opts, nethttp.MethodGet, nil, false))
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, url string, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, url, withMethod(opts, nethttp.MethodPost, body, true))
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, url string, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, url, withMethod(opts, nethttp.MethodPut, body, true))
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, url string, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, url, withMethod(opts, nethttp.MethodPatch, body, true))
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, url, withMethod(opts, nethttp.MethodDelete, nil, false))
}

func withMethod(opts *RequestOptions, method string, body any, setBody bool) *RequestOptions {
	var o RequestOptions
	if opts != nil {
		o = *opts
	}
	o.Method = method
	if setBody {
		o.Body = body
	}
	return &o
}

// Request performs one logical call: a single exchange plus any retries, all
// bounded by the resolved timeout. It returns either a response or an *Error.
func (c *client) Request(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	start := time.Now()
	callCount := c.callCount.Add(1)
	snap := c.snapshot()
	resolved := resolveOptions(snap, opts)

	if err := validateOptions(url, &resolved); err != nil {
		return nil, err
	}

	target := buildURL(resolved.BaseURL, url, resolved.Params)
	// A rewritten path only resolves against an origin; without one the
	// call goes to its own host.
	if snap.proxyEnabled && c.proxy.Origin != "" {
		target = c.proxy.Apply(target)
	}
	wireURL, ok := c.proxy.Resolve(target)
	if !ok {
		return nil, NewValidationError("relative URL needs a base URL or proxy origin", "url")
	}

	body, structured, err := encodeBody(resolved.Body)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "invalid request body", Field: "body", wrapped: err}
	}
	header := buildHeader(resolved.Headers, structured)

	callCtx, cancel := context.WithTimeout(ctx, resolved.Timeout)
	defer cancel()
	callCtx, span := c.inst.startSpan(callCtx, resolved.Method, wireURL)

	c.logRequest(callCtx, resolved.Method, wireURL, header, body)

	var (
		raw      *nethttp.Response
		rawBody  []byte
		attempts int
	)
	r := retrier{
		retries: *resolved.Retries,
		delay:   c.retryDelay,
		onRetry: func(attempt int, err error) {
			c.logger.Warn().
				Str("method", resolved.Method).
				Str("url", wireURL).
				Int("attempt", attempt).
				Dur("delay", c.retryDelay).
				Err(err).
				Msg("HTTP client retrying after transport failure")
		},
	}
	err = r.do(callCtx, func(attemptCtx context.Context) error {
		attempts++
		c.inst.recordAttempt(attemptCtx, resolved.Method)

		httpReq, err := c.newHTTPRequest(attemptCtx, resolved.Method, wireURL, header, body)
		if err != nil {
			return permanent(err)
		}
		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		raw, rawBody = httpResp, data
		return nil
	})

	var resp *Response
	if err != nil {
		err = c.classifyFailure(ctx, callCtx, resolved.Timeout, err)
	} else {
		resp, err = c.buildResponse(resolved, raw, rawBody, Stats{
			ElapsedTime: time.Since(start),
			Attempts:    attempts,
			CallCount:   callCount,
		})
	}

	c.inst.finish(callCtx, span, resolved.Method, start, responseOf(resp, err), err)
	c.logResult(callCtx, resolved.Method, wireURL, resp, err, time.Since(start), attempts)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func responseOf(resp *Response, err error) *Response {
	if resp != nil {
		return resp
	}
	if clientErr, ok := AsError(err); ok {
		return clientErr.Response
	}
	return nil
}

// classifyFailure maps an error from the retry loop to an *Error. parent is
// the caller's context and callCtx carries the call timeout.
func (c *client) classifyFailure(parent, callCtx context.Context, timeout time.Duration, err error) *Error {
	if clientErr, ok := AsError(err); ok {
		return clientErr
	}
	if errors.Is(parent.Err(), context.Canceled) {
		return NewCanceledError(err)
	}
	if callCtx.Err() != nil {
		return NewTimeoutError(timeout, err)
	}
	return NewNetworkError("request execution failed", err)
}

// buildResponse decodes the body and classifies the status.
func (c *client) buildResponse(opts RequestOptions, raw *nethttp.Response, body []byte, stats Stats) (*Response, error) {
	resp := &Response{
		Body:       body,
		Status:     raw.StatusCode,
		StatusText: statusText(raw),
		Headers:    raw.Header,
		Config:     opts,
		Stats:      stats,
	}

	data, decodeErr := decodeBody(opts.ResponseType, resp.Status, resp.Headers, body)

	if !isOK(resp.Status, opts.EvaluateAllStatesAsErrors) {
		// Keep the raw text for error bodies that are not JSON.
		if decodeErr != nil {
			data = string(body)
		}
		resp.Data = data
		return nil, NewHTTPError(resp)
	}

	if decodeErr != nil {
		if !opts.LenientJSON {
			return nil, NewDecodeError(resp, decodeErr)
		}
		c.logger.Warn().
			Int("status", resp.Status).
			Int("body_size", len(body)).
			Err(decodeErr).
			Msg("HTTP client substituted empty object for undecodable body")
		data = map[string]any{}
	}
	resp.Data = data
	return resp, nil
}

func statusText(raw *nethttp.Response) string {
	if text := strings.TrimPrefix(raw.Status, strconv.Itoa(raw.StatusCode)+" "); text != "" && text != raw.Status {
		return text
	}
	return nethttp.StatusText(raw.StatusCode)
}

// newHTTPRequest builds one attempt. The body reader is recreated so every
// attempt sends the full payload.
func (c *client) newHTTPRequest(ctx context.Context, method, url string, header nethttp.Header, body []byte) (*nethttp.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := nethttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "failed to create HTTP request", Field: "url", wrapped: err}
	}
	httpReq.Header = header.Clone()
	propagate(ctx, httpReq.Header)

	for _, interceptor := range c.interceptors {
		if err := interceptor(ctx, httpReq); err != nil {
			return nil, &Error{Kind: KindValidation, Message: "request interceptor failed", wrapped: err}
		}
	}
	return httpReq, nil
}

// snapshot copies the mutable defaults under the read lock
func (c *client) snapshot() defaults {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return defaults{
		baseURL:      c.baseURL,
		headers:      maps.Clone(c.headers),
		timeout:      c.timeout,
		retries:      c.retries,
		proxyEnabled: c.proxyEnabled,
	}
}

// resolveOptions merges opts over the defaults. Per-call headers replace
// defaults with the same canonical name.
func resolveOptions(d defaults, opts *RequestOptions) RequestOptions {
	var o RequestOptions
	if opts != nil {
		o = *opts
	}

	o.Method = strings.ToUpper(o.Method)
	if o.Method == "" {
		o.Method = nethttp.MethodGet
	}

	headers := d.headers
	if headers == nil {
		headers = make(map[string]string)
	}
	for k, v := range o.Headers {
		setHeader(headers, k, v)
	}
	o.Headers = headers

	if o.Timeout <= 0 {
		o.Timeout = d.timeout
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	retries := d.retries
	if o.Retries != nil {
		retries = *o.Retries
	}
	o.Retries = &retries
	if o.BaseURL == "" {
		o.BaseURL = d.baseURL
	}
	if o.Params != nil {
		o.Params = maps.Clone(o.Params)
	}
	return o
}

func validateOptions(url string, o *RequestOptions) error {
	if url == "" && o.BaseURL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	if *o.Retries < 0 {
		return NewValidationError("retries cannot be negative", "retries")
	}
	if !o.ResponseType.Valid() {
		return NewValidationError(fmt.Sprintf("unsupported response type %s", o.ResponseType), "responseType")
	}
	return nil
}

// buildHeader converts merged headers to an http.Header and sets the JSON
// content type for encoded bodies unless the caller chose one.
func buildHeader(headers map[string]string, structured bool) nethttp.Header {
	h := make(nethttp.Header, len(headers)+1)
	for k, v := range headers {
		h.Set(k, v)
	}
	if structured && h.Get("Content-Type") == "" {
		h.Set("Content-Type", contentTypeJSON)
	}
	return h
}

// setHeader sets key in m, dropping any existing key with the same canonical
// form. An empty value removes the header.
func setHeader(m map[string]string, key, value string) {
	canonical := nethttp.CanonicalHeaderKey(key)
	for existing := range m {
		if nethttp.CanonicalHeaderKey(existing) == canonical {
			delete(m, existing)
		}
	}
	if value != "" {
		m[key] = value
	}
}

func (c *client) SetDefaultHeaders(headers map[string]string) {
	next := make(map[string]string, len(headers))
	for k, v := range headers {
		setHeader(next, k, v)
	}
	c.mu.Lock()
	c.headers = next
	c.mu.Unlock()
}

func (c *client) SetDefaultHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	setHeader(c.headers, key, value)
}

// SetAuthToken attaches token as x-access-token to every later call
func (c *client) SetAuthToken(token string) {
	c.SetDefaultHeader(HeaderAccessToken, token)
}

func (c *client) ClearAuthToken() {
	c.SetDefaultHeader(HeaderAccessToken, "")
}

// DefaultHeaders returns a copy of the current default headers
func (c *client) DefaultHeaders() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.headers)
}

func (c *client) SetProxyEnabled(enabled bool) {
	c.mu.Lock()
	c.proxyEnabled = enabled
	c.mu.Unlock()
}

func (c *client) ProxyEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proxyEnabled
}

// logRequest logs the outgoing call once, before the first attempt
func (c *client) logRequest(ctx context.Context, method, url string, header nethttp.Header, body []byte) {
	logEvent := c.logger.WithContext(ctx).Info().
		Str("direction", "outbound").
		Str("method", method).
		Str("url", url)

	if id, ok := trace.RequestIDFromContext(ctx); ok {
		logEvent = logEvent.Str("request_id", id)
	}
	if len(header) > 0 {
		logEvent = logEvent.Interface("headers", header)
	}
	if len(body) > 0 {
		logEvent = logEvent.Int("body_size", len(body))
	}

	logEvent.Msg("HTTP client request")
}

// logResult logs the final response or error of a call
func (c *client) logResult(ctx context.Context, method, url string, resp *Response, err error, elapsed time.Duration, attempts int) {
	log := c.logger.WithContext(ctx)
	if err != nil {
		kind, status := "unknown", 0
		if clientErr, ok := AsError(err); ok {
			kind, status = clientErr.Kind.String(), clientErr.Status
		}
		log.Warn().
			Str("direction", "inbound").
			Str("method", method).
			Str("url", url).
			Str("kind", kind).
			Int("status", status).
			Dur("elapsed", elapsed).
			Int("attempts", attempts).
			Err(err).
			Msg("HTTP client request failed")
		return
	}

	log.Info().
		Str("direction", "inbound").
		Str("method", method).
		Int("status", resp.Status).
		Dur("elapsed", elapsed).
		Int("attempts", attempts).
		Int64("call_count", resp.Stats.CallCount).
		Int("body_size", len(resp.Body)).
		Msg("HTTP client response")
}
