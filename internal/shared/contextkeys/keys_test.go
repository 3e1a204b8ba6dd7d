package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKey_String(t *testing.T) {
	key := contextKey("testKey")
	assert.Equal(t, "car-listing context key testKey", key.String())
}

func TestContextKeys_Usage(t *testing.T) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, UserIDKey, "user-123")
	ctx = context.WithValue(ctx, UserEmailKey, "user@example.com")
	ctx = context.WithValue(ctx, RequestIDKey, "req-456")
	ctx = context.WithValue(ctx, ComponentKey, "cars")
	ctx = context.WithValue(ctx, OperationKey, "create_car")

	assert.Equal(t, "user-123", ctx.Value(UserIDKey))
	assert.Equal(t, "user@example.com", ctx.Value(UserEmailKey))
	assert.Equal(t, "req-456", ctx.Value(RequestIDKey))
	assert.Equal(t, "cars", ctx.Value(ComponentKey))
	assert.Equal(t, "create_car", ctx.Value(OperationKey))
}

func TestContextKeys_AreDistinct(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDKey, "user-123")
	assert.Nil(t, ctx.Value(UserEmailKey))
	assert.Nil(t, ctx.Value(contextKey("other")))
}
