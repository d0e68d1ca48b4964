package storm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	k := CacheKey{Table: "FakeData", Operation: "select", Fingerprint: "abc"}
	assert.Equal(t, "storm:FakeData:select:abc", k.String())
	assert.Equal(t, "storm:FakeData:", k.Prefix())
}

func TestMemoryCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("GetSet", func(t *testing.T) {
		c := NewMemoryCache()
		v, err := c.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, v)

		require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
		v, err = c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), v)
	})

	t.Run("Expiry", func(t *testing.T) {
		c := NewMemoryCache()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }
		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

		now = now.Add(30 * time.Second)
		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), v)

		now = now.Add(time.Minute)
		v, err = c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Nil(t, v)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("DeletePrefix", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "storm:A:select:1", []byte("1"), 0))
		require.NoError(t, c.Set(ctx, "storm:A:exists:2", []byte("2"), 0))
		require.NoError(t, c.Set(ctx, "storm:B:select:3", []byte("3"), 0))

		require.NoError(t, c.DeletePrefix(ctx, "storm:A:"))
		assert.Equal(t, 1, c.Len())

		require.NoError(t, c.Delete(ctx, "storm:B:select:3"))
		assert.Equal(t, 0, c.Len())
	})

	t.Run("Clear", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
		require.NoError(t, c.Clear(ctx))
		assert.Equal(t, 0, c.Len())
	})
}
