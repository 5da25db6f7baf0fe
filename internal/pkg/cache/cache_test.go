package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	res, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, res.Found)

	require.NoError(t, store.Set(ctx, "k", []byte("v1"), time.Minute))
	res, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []byte("v1"), res.Value)

	now = now.Add(59 * time.Second)
	res, _ = store.Get(ctx, "k")
	assert.True(t, res.Found, "entry is still fresh one second before expiry")

	now = now.Add(time.Second)
	res, _ = store.Get(ctx, "k")
	assert.False(t, res.Found, "entry expires exactly at its TTL")

	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, store.Delete(ctx, "a", "b"))
	res, _ = store.Get(ctx, "a")
	assert.False(t, res.Found)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, 0))
	value[0] = 'x'

	res, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(res.Value))
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewRedisStore(RedisConfig{Addr: mr.Addr(), OpTimeout: time.Second})
	defer store.Close()

	require.NoError(t, store.Ping(ctx))

	res, err := store.Get(ctx, "enrollment:offerings:active")
	require.NoError(t, err)
	assert.False(t, res.Found)

	require.NoError(t, store.Set(ctx, "enrollment:offerings:active", []byte(`[]`), 60*time.Second))
	res, err = store.Get(ctx, "enrollment:offerings:active")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, `[]`, string(res.Value))

	mr.FastForward(61 * time.Second)
	res, err = store.Get(ctx, "enrollment:offerings:active")
	require.NoError(t, err)
	assert.False(t, res.Found, "redis expires the key after its TTL")

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestRedisStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewRedisStore(RedisConfig{Addr: mr.Addr(), OpTimeout: 200 * time.Millisecond})
	defer store.Close()
	mr.Close()

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, apperrors.ErrCacheUnavailable)
	assert.ErrorIs(t, store.Set(ctx, "k", []byte("v"), time.Minute), apperrors.ErrCacheUnavailable)
	assert.ErrorIs(t, store.Delete(ctx, "k"), apperrors.ErrCacheUnavailable)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "enrollment:lastvisited:user:42", Keys{Prefix: "enrollment"}.Key("lastvisited", "user", "42"))
	assert.Equal(t, "offerings:active", Keys{}.Key("offerings", "active"))
}

func TestDisabledStore(t *testing.T) {
	ctx := context.Background()
	var store Store = Disabled{}
	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	res, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Found)
}
