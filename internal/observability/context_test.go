package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-123")
		assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		assert.Equal(t, "", RequestIDFromContext(context.Background()))
	})
}

func TestCorrelationIDContext(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-1")
	assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	assert.Equal(t, "", CorrelationIDFromContext(context.Background()))
}

func TestUserIDContext(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-42")
	assert.Equal(t, "user-42", UserIDFromContext(ctx))
}

func TestRequestContextFull(t *testing.T) {
	t.Run("round trips all fields", func(t *testing.T) {
		rc := RequestContext{
			RequestID:     "req-1",
			CorrelationID: "corr-1",
			UserID:        "user-1",
		}

		ctx := WithRequestContextFull(context.Background(), rc)
		assert.Equal(t, rc, RequestContextFromContext(ctx))
	})

	t.Run("skips empty fields", func(t *testing.T) {
		ctx := WithRequestContextFull(context.Background(), RequestContext{RequestID: "req-only"})

		got := RequestContextFromContext(ctx)
		assert.Equal(t, "req-only", got.RequestID)
		assert.Empty(t, got.CorrelationID)
		assert.Empty(t, got.UserID)
	})

	t.Run("ignores non-string values", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), requestIDKey, 42)
		assert.Equal(t, "", RequestIDFromContext(ctx))
	})
}
