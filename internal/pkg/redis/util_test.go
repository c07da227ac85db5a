package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	Rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = Rdb.Close()
		Rdb = nil
	})
	return mr
}

func TestTryLockIsExclusive(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	ok, err := TryLock(ctx, "lock:a", "owner-1", time.Minute, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = TryLock(ctx, "lock:a", "owner-2", time.Minute, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnLockOnlyReleasesOwnLock(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	_, err := TryLock(ctx, "lock:a", "owner-1", time.Minute, 1)
	require.NoError(t, err)

	require.NoError(t, UnLock(ctx, "lock:a", "owner-2"))
	assert.True(t, mr.Exists("lock:a"))

	require.NoError(t, UnLock(ctx, "lock:a", "owner-1"))
	assert.False(t, mr.Exists("lock:a"))
}

func TestLockExpires(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	_, err := TryLock(ctx, "lock:a", "owner-1", time.Second, 1)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	ok, err := TryLock(ctx, "lock:a", "owner-2", time.Second, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetValueMissingKey(t *testing.T) {
	setupMiniredis(t)

	v, err := GetValue(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestNotInitialized(t *testing.T) {
	Rdb = nil
	assert.False(t, Enabled())

	_, err := TryLock(context.Background(), "k", "v", time.Second, 1)
	assert.ErrorIs(t, err, ErrNotInitialized)
}
