package httpclient

import (
	"context"
	nethttp "net/http"
	"time"
)

// HeaderAccessToken is the authentication header understood by the custom-fields API.
const HeaderAccessToken = "x-access-token"

// Client defines the HTTP client used across fieldsadmin.
//
// Verb helpers never mutate the options passed in. Default headers are
// process-lifetime state owned by the Client and are changed only through the
// Set* methods; each Request works on a snapshot taken when it starts.
type Client interface {
	Request(ctx context.Context, url string, opts *RequestOptions) (*Response, error)
	Get(ctx context.Context, url string, opts *RequestOptions) (*Response, error)
	Post(ctx context.Context, url string, body any, opts *RequestOptions) (*Response, error)
	Put(ctx context.Context, url string, body any, opts *RequestOptions) (*Response, error)
	Patch(ctx context.Context, url string, body any, opts *RequestOptions) (*Response, error)
	Delete(ctx context.Context, url string, opts *RequestOptions) (*Response, error)

	// SetDefaultHeaders replaces every default header in one step.
	SetDefaultHeaders(headers map[string]string)
	// SetDefaultHeader sets one default header. An empty value removes it.
	SetDefaultHeader(key, value string)
	SetAuthToken(token string)
	ClearAuthToken()
	DefaultHeaders() map[string]string

	SetProxyEnabled(enabled bool)
	ProxyEnabled() bool
}

// Params are query parameters appended to the request URL. A nil value is
// treated as absent. Other values are rendered with fmt.Sprint.
type Params map[string]any

// RequestOptions configures a single call. Zero fields inherit the client
// defaults.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	// Body is sent as-is when it is []byte, string, json.RawMessage or an
	// io.Reader. Any other value is JSON-encoded.
	Body         any
	Params       Params
	ResponseType ResponseType
	// Timeout bounds the whole call including retries. Zero uses the client default.
	Timeout time.Duration
	// Retries is the number of extra attempts after a transport failure.
	// Nil uses the client default.
	Retries *int
	// BaseURL overrides the client base URL for relative paths.
	BaseURL string
	// EvaluateAllStatesAsErrors treats every non-2xx status as an error.
	EvaluateAllStatesAsErrors bool
	// LenientJSON substitutes an empty object when a JSON body fails to decode.
	LenientJSON bool
}

// Retries returns a pointer to n for use in RequestOptions.
func Retries(n int) *int {
	return &n
}

// Response is the envelope returned by a successful call and attached to
// HTTP and decode errors.
type Response struct {
	Data       any
	Body       []byte
	Status     int
	StatusText string
	Headers    nethttp.Header
	// Config holds the resolved options that produced this response.
	Config RequestOptions
	Stats  Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	Attempts    int
	CallCount   int64
}

// Blob is the decoded body for ResponseBlob.
type Blob struct {
	Type string
	Data []byte
}

// RequestInterceptor is called on every attempt just before it is sent.
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error
