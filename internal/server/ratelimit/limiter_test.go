package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Window(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "alice|10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	now = now.Add(20 * time.Second)
	ok, retry, err := l.Allow(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry)

	ok, _, _ = l.Allow(ctx, "bob|10.0.0.1")
	assert.True(t, ok, "keys are independent")

	now = now.Add(41 * time.Second)
	ok, _, _ = l.Allow(ctx, "alice|10.0.0.1")
	assert.True(t, ok, "window reset")
}

func TestMemoryLimiter_Disabled(t *testing.T) {
	l := NewMemoryLimiter(0, 0)
	for i := 0; i < 100; i++ {
		ok, _, err := l.Allow(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestUnlimited(t *testing.T) {
	ok, d, err := Unlimited{}.Allow(context.Background(), "k")
	assert.True(t, ok)
	assert.Zero(t, d)
	assert.NoError(t, err)
}
