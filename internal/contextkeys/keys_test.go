package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Empty(t, GetCaseID(ctx))
}

func TestCaseID(t *testing.T) {
	ctx := WithCaseID(context.Background(), "case-7")
	assert.Equal(t, "case-7", GetCaseID(ctx))

	ctx = WithCaseID(ctx, "case-8")
	assert.Equal(t, "case-8", GetCaseID(ctx))
}

func TestKeysDoNotCollide(t *testing.T) {
	ctx := WithRequestID(WithCaseID(context.Background(), "case-7"), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "case-7", GetCaseID(ctx))

	// A plain string key with the same text is a different key.
	ctx = context.WithValue(context.Background(), "forensiq.request_id", "spoofed")
	assert.Empty(t, GetRequestID(ctx))
}
