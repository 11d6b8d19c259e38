package trace

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureRequestIDUsesExisting(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", EnsureRequestID(ctx))
}

func TestEnsureRequestIDGeneratesUUID(t *testing.T) {
	id := EnsureRequestID(context.Background())
	_, err := uuid.Parse(id)
	require.NoError(t, err)
}

func TestRequestIDFromContextMissing(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = RequestIDFromContext(WithRequestID(context.Background(), ""))
	assert.False(t, ok)
}

func TestInjectRequestID(t *testing.T) {
	t.Run("fills missing header", func(t *testing.T) {
		h := http.Header{}
		InjectRequestID(WithRequestID(context.Background(), "abc"), h)
		assert.Equal(t, "abc", h.Get(HeaderXRequestID))
	})

	t.Run("preserves caller header", func(t *testing.T) {
		h := http.Header{}
		h.Set(HeaderXRequestID, "caller")
		InjectRequestID(WithRequestID(context.Background(), "abc"), h)
		assert.Equal(t, "caller", h.Get(HeaderXRequestID))
	})
}
