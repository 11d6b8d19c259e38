// Package query adapts httpclient to a declarative fetch model: a Query is
// created for a request identity, fetches on creation when enabled, can be
// refetched on demand or on an interval, and exposes its latest State.
//
// Refetches of the same key coalesce onto the in-flight request, both within
// a Query and across Queries sharing a Client.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gaborage/fieldsadmin/httpclient"
	"github.com/gaborage/fieldsadmin/logger"
)

// Client coalesces fetches by key. One Client is shared by every Query in a
// process.
type Client struct {
	log   logger.Logger
	group singleflight.Group
}

// NewClient creates a query client
func NewClient(log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{log: log}
}

// Options configures a Query.
type Options[T any] struct {
	// Key overrides the request identity. Default: [url] for UseGet and
	// [method, url, data] for UseRequest.
	Key []any
	// Enabled forces fetching on or off. Default: on when the URL is not empty.
	Enabled *bool
	// RefetchInterval polls while the Query is open. Zero disables polling.
	RefetchInterval time.Duration
	// Request holds per-call client options such as headers or params.
	Request *httpclient.RequestOptions
	// OnSuccess and OnError run once per settled fetch.
	OnSuccess func(data T)
	OnError   func(err error)
}

// Enabled returns a pointer to v for use in Options.
func Enabled(v bool) *bool {
	return &v
}

// State is a snapshot of a Query. Data keeps the last successful value
// when a later fetch fails.
type State[T any] struct {
	Data      T
	IsLoading bool
	Err       error
	UpdatedAt time.Time
}

// Query is a live request identity. Close it to stop polling.
type Query[T any] struct {
	qc        *Client
	hc        httpclient.Client
	key       string
	flightKey string
	method    string
	url       string
	data      any
	opts      Options[T]
	enabled   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	state   State[T]
	current *flight[T]
}

type flight[T any] struct {
	done chan struct{}
	data T
	err  error
}

// UseGet creates a Query for a GET of url. ctx bounds the Query lifetime.
func UseGet[T any](ctx context.Context, qc *Client, hc httpclient.Client, url string, opts Options[T]) *Query[T] {
	key := opts.Key
	if key == nil {
		key = []any{url}
	}
	return newQuery(ctx, qc, hc, nethttp.MethodGet, url, nil, key, opts)
}

// UseRequest creates a Query for any method. data is sent as the request body.
func UseRequest[T any](ctx context.Context, qc *Client, hc httpclient.Client, method, url string, data any, opts Options[T]) *Query[T] {
	key := opts.Key
	if key == nil {
		key = []any{method, url, data}
	}
	return newQuery(ctx, qc, hc, method, url, data, key, opts)
}

func newQuery[T any](ctx context.Context, qc *Client, hc httpclient.Client, method, url string, data any, key []any, opts Options[T]) *Query[T] {
	qctx, cancel := context.WithCancel(ctx)
	k := KeyString(key)
	var zero T
	q := &Query[T]{
		qc:        qc,
		hc:        hc,
		key:       k,
		flightKey: fmt.Sprintf("%T|%s", zero, k),
		method:    method,
		url:       url,
		data:      data,
		opts:      opts,
		enabled:   url != "",
		ctx:       qctx,
		cancel:    cancel,
	}
	if opts.Enabled != nil {
		q.enabled = *opts.Enabled
	}

	if q.enabled {
		q.trigger()
		if opts.RefetchInterval > 0 {
			q.wg.Add(1)
			go q.poll(opts.RefetchInterval)
		}
	}
	return q
}

// KeyString renders a key as stable text. Values that cannot be encoded as
// JSON fall back to fmt formatting.
func KeyString(key []any) string {
	b, err := json.Marshal(key)
	if err != nil {
		return fmt.Sprintf("%v", key)
	}
	return string(b)
}

// Key returns the rendered request identity
func (q *Query[T]) Key() string {
	return q.key
}

// IsEnabled reports whether the Query fetches on its own
func (q *Query[T]) IsEnabled() bool {
	return q.enabled
}

// State returns the latest snapshot
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Refetch starts a fetch, or joins the one in flight, and waits for it.
// Refetch works on disabled Queries too.
func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	return q.await(ctx, q.trigger())
}

// Wait blocks until the in-flight fetch, if any, settles and returns the state.
func (q *Query[T]) Wait(ctx context.Context) (State[T], error) {
	q.mu.Lock()
	f := q.current
	q.mu.Unlock()
	if f != nil {
		if _, err := q.await(ctx, f); err != nil && ctx.Err() != nil {
			return q.State(), err
		}
	}
	return q.State(), nil
}

// Close stops polling and cancels any fetch started by this Query.
func (q *Query[T]) Close() {
	q.cancel()
	q.wg.Wait()
}

func (q *Query[T]) await(ctx context.Context, f *flight[T]) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.done:
		return f.data, f.err
	}
}

// trigger returns the in-flight fetch or starts a new one.
func (q *Query[T]) trigger() *flight[T] {
	q.mu.Lock()
	if q.current != nil {
		f := q.current
		q.mu.Unlock()
		return f
	}
	f := &flight[T]{done: make(chan struct{})}
	q.current = f
	q.state.IsLoading = true
	q.mu.Unlock()

	q.wg.Add(1)
	go q.run(f)
	return f
}

func (q *Query[T]) run(f *flight[T]) {
	defer q.wg.Done()

	v, err, shared := q.qc.group.Do(q.flightKey, func() (any, error) {
		data, _, err := httpclient.DoJSON[T](q.ctx, q.hc, q.method, q.url, q.request())
		return data, err
	})
	if data, ok := v.(T); ok {
		f.data = data
	}
	f.err = err

	q.mu.Lock()
	q.current = nil
	q.state.IsLoading = false
	q.state.Err = err
	if err == nil {
		q.state.Data = f.data
		q.state.UpdatedAt = time.Now()
	}
	q.mu.Unlock()

	// Callbacks finish before waiters are released.
	defer close(f.done)
	if err != nil {
		q.qc.log.Warn().
			Str("key", q.key).
			Bool("shared", shared).
			Err(err).
			Msg("Query fetch failed")
		if q.opts.OnError != nil {
			q.opts.OnError(err)
		}
		return
	}
	if q.opts.OnSuccess != nil {
		q.opts.OnSuccess(f.data)
	}
}

func (q *Query[T]) request() *httpclient.RequestOptions {
	var o httpclient.RequestOptions
	if q.opts.Request != nil {
		o = *q.opts.Request
	}
	o.Method = q.method
	if q.data != nil {
		o.Body = q.data
	}
	return &o
}

func (q *Query[T]) poll(interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.trigger()
		}
	}
}
