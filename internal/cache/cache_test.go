package cache

import (
	"context"
	"testing"
	"time"

	"social-house-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	c, err := NewMemory(100)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "search:ali", []byte(`[{"id":"1"}]`), time.Minute))

	data, err := c.Get(ctx, "search:ali")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(data))
}

func TestMemory_Miss(t *testing.T) {
	c, err := NewMemory(100)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemory_Expiry(t *testing.T) {
	c, err := NewMemory(100)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 50*time.Millisecond))
	time.Sleep(1200 * time.Millisecond)

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNew(t *testing.T) {
	c, err := New(context.Background(), config.CacheConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(context.Background(), config.CacheConfig{Type: "memory", MaxItems: 10})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "memory", c.Name())
	c.Close()

	_, err = New(context.Background(), config.CacheConfig{Type: "memcached"})
	assert.Error(t, err)
}
