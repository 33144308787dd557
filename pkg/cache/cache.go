// Package cache stores finished solve results so that repeating a solve with
// the same instance, options and seed returns immediately.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// the HTTP server and [NullCache] when caching is disabled. Keys come from a
// [Keyer], which hashes everything that influences a result.
package cache

import (
	"context"
	"time"
)

// TTLSolve is how long a solve result stays cached. Results are a pure
// function of their key, so the TTL only bounds storage.
const TTLSolve = 30 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry owned by the cache.
	Clear(ctx context.Context) error
	Close() error
}

// NullCache never stores anything. It stands in when caching is disabled
// or no cache directory is available.
type NullCache struct{}

// NewNullCache returns a NullCache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NullCache) Delete(context.Context, string) error { return nil }

func (NullCache) Clear(context.Context) error { return nil }

func (NullCache) Close() error { return nil }
