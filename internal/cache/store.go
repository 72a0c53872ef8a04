package cache

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound signals a missing cache key.
var ErrKeyNotFound = errors.New("key not found")

// Store is the key-value contract for cache backends.
type Store interface {
	// Get retrieves a value by key. Returns ErrKeyNotFound when missing.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value at the given key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
	// Close shuts down the backend client.
	Close()
}

// NoopStore is the degraded store used when no cache backend is configured.
// Every lookup misses; writes are discarded without error.
type NoopStore struct{}

// Get always reports a miss.
func (NoopStore) Get(context.Context, string) ([]byte, error) { return nil, ErrKeyNotFound }

// Set discards the value.
func (NoopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Ping always succeeds.
func (NoopStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (NoopStore) Close() {}
