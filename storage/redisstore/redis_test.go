package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-nimbu-client/storage/redisstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisTest(t *testing.T, options ...redisstore.Option) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	store, err := redisstore.Dial(context.Background(), mr.Addr(), "", 0, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisTest(t, redisstore.WithPrefix("test:"))

	t.Run("GetMissingKey", func(t *testing.T) {
		v, ok, err := store.Get(ctx, "missing")
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "nimbu-c-refresh", "rt-1"))

		v, ok, err := store.Get(ctx, "nimbu-c-refresh")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "rt-1", v)

		raw, err := mr.Get("test:nimbu-c-refresh")
		require.NoError(t, err)
		assert.Equal(t, "rt-1", raw)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "gone", "x"))
		require.NoError(t, store.Remove(ctx, "gone"))
		require.NoError(t, store.Remove(ctx, "gone"))

		_, ok, err := store.Get(ctx, "gone")
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisTest(t, redisstore.WithTTL(time.Second))

	require.NoError(t, store.Set(ctx, "expiring", "v"))
	mr.FastForward(2 * time.Second)

	_, ok, err := store.Get(ctx, "expiring")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_DialFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := redisstore.Dial(context.Background(), addr, "", 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis connection failed")
}

func TestRedisStore_GetError(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisTest(t)
	mr.SetError("READONLY")

	_, _, err := store.Get(ctx, "k")
	require.Error(t, err)
}
