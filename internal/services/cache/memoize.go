package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ternarybob/ostendo/internal/interfaces"
)

// Cached wraps an expensive computation with cache-aside semantics.
// The first call for a key computes and stores the value; later calls
// with the same key return the stored value until it expires. The bool
// reports whether the value came from the cache. Compute errors are
// returned unchanged and nothing is stored.
func Cached[T any](ctx context.Context, svc interfaces.CacheService, namespace, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, bool, error) {
	var zero T

	if data, ok := svc.Get(ctx, namespace, key); ok {
		var value T
		if err := json.Unmarshal(data, &value); err == nil {
			return value, true, nil
		}
		// Undecodable entry: drop it and recompute
		svc.Delete(ctx, namespace, key)
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, false, err
	}

	// An unencodable value skips caching but is still returned
	if data, err := json.Marshal(value); err == nil {
		svc.Set(ctx, namespace, key, data, ttl)
	}

	return value, false, nil
}
