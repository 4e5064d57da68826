package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "test")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newTestRedisStore(t)
	exerciseStore(t, s)
	exerciseConcurrentUpdates(t, s)
}

func TestRedisStoreUsesPrefix(t *testing.T) {
	s, mr := newTestRedisStore(t)
	require.NoError(t, s.Put(context.Background(), "state/offset", []byte(`{"offset":9}`)))

	raw, err := mr.Get("test:state/offset")
	require.NoError(t, err)
	assert.Equal(t, `{"offset":9}`, raw)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), Config{
		Backend: BackendRedis,
		Redis:   RedisConfig{Addr: mr.Addr(), Prefix: "relay"},
	})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &RedisStore{}, s)
}
