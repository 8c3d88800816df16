// Package kv is a small byte-value cache with Redis and in-process backends.
package kv

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"

	"appliance-alarm-backend/config"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("kv: miss")

// Store is a TTL cache of raw values.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// New returns a Redis-backed store when an address is configured and an
// in-process store otherwise.
func New(cfg config.RedisConfig, defaultTTL time.Duration) Store {
	if cfg.Addr == "" {
		return NewMemory(defaultTTL)
	}
	return NewRedis(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
}

// RedisKV stores values in Redis.
type RedisKV struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// DeletePrefix removes every key starting with prefix using SCAN.
func (r *RedisKV) DeletePrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Ping checks the Redis connection.
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// MemoryKV stores values in process memory.
type MemoryKV struct {
	c *cache.Cache
}

// NewMemory creates an in-process store.
func NewMemory(defaultTTL time.Duration) *MemoryKV {
	return &MemoryKV{c: cache.New(defaultTTL, 10*time.Minute)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, found := m.c.Get(key)
	if !found {
		return nil, ErrMiss
	}
	return v.([]byte), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *MemoryKV) DeletePrefix(_ context.Context, prefix string) error {
	for k := range m.c.Items() {
		if strings.HasPrefix(k, prefix) {
			m.c.Delete(k)
		}
	}
	return nil
}
