package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisStore stores values as JSON strings in Redis.
// The store is thread-safe and can be used concurrently from multiple goroutines.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a store using the given Redis connection options.
func NewRedisStore(opts *redis.Options) (*RedisStore, error) {
	if opts == nil || opts.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	return &RedisStore{rdb: redis.NewClient(opts)}, nil
}

// Client exposes the underlying Redis client, shared with the admin channel.
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

// Close closes the Redis connection. Implements io.Closer.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Get decodes the JSON value stored under key into v.
func (s *RedisStore) Get(ctx context.Context, key string, v any) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read %s from Redis: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Set stores v under key as JSON.
func (s *RedisStore) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s to Redis: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from Redis: %w", key, err)
	}
	return nil
}

// Keys uses SCAN so large keyspaces are not blocked.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys with prefix %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}
