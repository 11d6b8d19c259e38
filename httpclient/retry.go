package httpclient

import (
	"context"
	"errors"
	"time"
)

// retrier runs an attempt function up to retries+1 times. An attempt error
// wrapped with permanent is returned straight away. A cancelled context
// stops the loop before the next attempt and interrupts the delay.
type retrier struct {
	retries int
	delay   time.Duration
	onRetry func(attempt int, err error)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// permanent marks err as not worth retrying
func permanent(err error) error {
	return &permanentError{err: err}
}

// do returns nil on the first successful attempt, the last attempt error once
// retries are exhausted, or the context error when ctx ends first.
func (r retrier) do(ctx context.Context, attempt func(ctx context.Context) error) error {
	remaining := r.retries
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := attempt(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctx.Err() != nil || remaining <= 0 {
			return err
		}
		remaining--

		if r.onRetry != nil {
			r.onRetry(n, err)
		}
		if err := sleep(ctx, r.delay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
