package apikey

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/organaizer/config"
)

// =============================================================================
// 🧪 RedisStore 测试
// =============================================================================

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.RedisConfig{
		Addr:   mr.Addr(),
		KeySet: "test:keys",
	}

	store, err := NewRedisStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return mr, store
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), config.RedisConfig{Addr: addr}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestRedisStore_Contains(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	_, err := mr.SAdd("test:keys", "seeded")
	require.NoError(t, err)

	ok, err := store.Contains(ctx, "seeded")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Contains(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_AddAndRemove(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "k1", "k2"))
	assert.True(t, mr.Exists("test:keys"))

	members, err := mr.Members("test:keys")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"k1", "k2"}, members)

	require.NoError(t, store.Remove(ctx, "k1"))
	ok, err := store.Contains(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Add(ctx))
	assert.NoError(t, store.Remove(ctx))
}

func TestRedisStore_BackendDown(t *testing.T) {
	mr, store := setupTestRedis(t)
	mr.Close()

	_, err := store.Contains(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, store.Ping(context.Background()))
}

func TestRedisStore_Closed(t *testing.T) {
	_, store := setupTestRedis(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.Contains(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Add(context.Background(), "k"), ErrStoreClosed)
	assert.ErrorIs(t, store.Ping(context.Background()), ErrStoreClosed)
}

func TestFromConfig_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	_, err := mr.SAdd("organaizer:api_keys", "redis-key")
	require.NoError(t, err)

	cfg := config.AuthConfig{
		Enabled: true,
		APIKeys: []string{"static-key"},
		Redis:   config.RedisConfig{Addr: mr.Addr()},
	}
	store, err := FromConfig(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ok, err := store.Contains(context.Background(), "redis-key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "static+redis", store.Name())
	assert.NoError(t, store.Ping(context.Background()))
}
