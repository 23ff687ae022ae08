package kv

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a JSON key-value store. Implementations are safe for concurrent use.
type Store interface {
	// Get decodes the value stored under key into v.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string, v any) error

	// Set encodes v as JSON and stores it under key, replacing any previous value.
	Set(ctx context.Context, key string, v any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the keys starting with prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// IsNotFound returns true if the error means the key does not exist.
// Both ErrNotFound and a raw redis.Nil qualify.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, redis.Nil)
}
