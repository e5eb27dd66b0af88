package interfaces

import (
	"context"
	"time"
)

// CacheService is a two-tier (memory + durable) byte cache keyed by
// namespace and logical key. Tier failures degrade to misses; caching
// never fails the operation whose result is being cached.
type CacheService interface {
	// Get returns the cached value, or ok=false on miss or expiry
	Get(ctx context.Context, namespace, key string) (value []byte, ok bool)

	// Set stores a value in all active tiers. ttl <= 0 applies the
	// service's default lifetime.
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration)

	// Delete removes the entry, reporting true if any tier held it
	Delete(ctx context.Context, namespace, key string) bool

	// Clear removes every entry in a namespace
	Clear(ctx context.Context, namespace string) error

	// ClearAll removes every entry in every namespace
	ClearAll(ctx context.Context) error
}

// CacheStorage is the durable tier backing a CacheService
type CacheStorage interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte, expiresAt time.Time) error
	Delete(ctx context.Context, namespace, key string) (bool, error)
	ClearNamespace(ctx context.Context, namespace string) error
	ClearAll(ctx context.Context) error
}
