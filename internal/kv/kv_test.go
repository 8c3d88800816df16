package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appliance-alarm-backend/config"
)

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "alarmd:missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "alarmd:a", []byte("1"), time.Minute))
	require.NoError(t, s.Set(ctx, "alarmd:b", []byte("2"), time.Minute))
	require.NoError(t, s.Set(ctx, "other:c", []byte("3"), time.Minute))

	got, err := s.Get(ctx, "alarmd:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, s.DeletePrefix(ctx, "alarmd:"))
	_, err = s.Get(ctx, "alarmd:b")
	assert.ErrorIs(t, err, ErrMiss)
	got, err = s.Get(ctx, "other:c")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Ping(context.Background()))
	exerciseStore(t, s)

	require.NoError(t, s.Set(context.Background(), "alarmd:ttl", []byte("x"), time.Second))
	mr.FastForward(2 * time.Second)
	_, err := s.Get(context.Background(), "alarmd:ttl")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryKV(t *testing.T) {
	exerciseStore(t, NewMemory(time.Minute))
}

func TestNew_SelectsBackend(t *testing.T) {
	assert.IsType(t, &MemoryKV{}, New(config.RedisConfig{}, time.Second))
	assert.IsType(t, &RedisKV{}, New(config.RedisConfig{Addr: "localhost:6379"}, time.Second))
}
