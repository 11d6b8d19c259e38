package httpclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransport = errors.New("connection refused")

func TestRetrierAttempts(t *testing.T) {
	tests := []struct {
		retries  int
		attempts int
	}{
		{retries: 0, attempts: 1},
		{retries: 1, attempts: 2},
		{retries: 3, attempts: 4},
	}

	for _, tt := range tests {
		calls := 0
		var retried []int
		r := retrier{retries: tt.retries, delay: time.Millisecond, onRetry: func(attempt int, _ error) {
			retried = append(retried, attempt)
		}}

		err := r.do(context.Background(), func(context.Context) error {
			calls++
			return errTransport
		})

		require.ErrorIs(t, err, errTransport)
		assert.Equal(t, tt.attempts, calls)
		assert.Len(t, retried, tt.retries)
	}
}

func TestRetrierStopsOnSuccess(t *testing.T) {
	calls := 0
	r := retrier{retries: 5, delay: time.Millisecond}

	err := r.do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransport
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrierPermanentErrorIsNotRetried(t *testing.T) {
	calls := 0
	cause := errors.New("bad request")
	r := retrier{retries: 5, delay: time.Millisecond}

	err := r.do(context.Background(), func(context.Context) error {
		calls++
		return permanent(cause)
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, calls)
}

func TestRetrierDelayIsInterruptedByContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	calls := 0
	r := retrier{retries: 5, delay: time.Hour}
	start := time.Now()

	err := r.do(ctx, func(context.Context) error {
		calls++
		return errTransport
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetrierDoesNotStartAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retrier{retries: 2}.do(ctx, func(context.Context) error {
		calls++
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
