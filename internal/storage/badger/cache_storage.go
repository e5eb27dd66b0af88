package badger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// CacheEntry is the durable representation of one cached value.
// The store key hashes the logical key, so entries can only be found
// by exact key; namespace-wide operations query the indexed Namespace
// field instead.
type CacheEntry struct {
	StoreKey  string `badgerhold:"key"`
	Namespace string `badgerhold:"index"`
	Value     []byte
	ExpiresAt time.Time // zero value means no expiry
	CreatedAt time.Time
}

// CacheStorage implements the durable cache tier over badgerhold
type CacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.CacheStorage = (*CacheStorage)(nil)

// NewCacheStorage creates a new CacheStorage instance
func NewCacheStorage(db *BadgerDB, logger arbor.ILogger) *CacheStorage {
	return &CacheStorage{
		db:     db,
		logger: logger,
	}
}

// storeKey derives the store key from namespace and logical key.
// Logical keys are hashed so arbitrarily long keys stay bounded.
func storeKey(namespace, key string) string {
	sum := sha256.Sum256([]byte(key))
	return namespace + "/" + hex.EncodeToString(sum[:])
}

// Get retrieves a cached value, enforcing expiry lazily on read
func (s *CacheStorage) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	sk := storeKey(namespace, key)

	var entry CacheEntry
	err := s.db.Store().Get(sk, &entry)
	if err == badgerhold.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		// Expired entry: evict and report a miss
		if err := s.db.Store().Delete(sk, &CacheEntry{}); err != nil && err != badgerhold.ErrNotFound {
			s.logger.Warn().Err(err).Str("namespace", namespace).Msg("Failed to evict expired cache entry")
		}
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Set stores a value under the hashed key
func (s *CacheStorage) Set(ctx context.Context, namespace, key string, value []byte, expiresAt time.Time) error {
	sk := storeKey(namespace, key)

	entry := CacheEntry{
		StoreKey:  sk,
		Namespace: namespace,
		Value:     value,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	if err := s.db.Store().Upsert(sk, &entry); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	return nil
}

// Delete removes an entry, reporting whether it existed
func (s *CacheStorage) Delete(ctx context.Context, namespace, key string) (bool, error) {
	sk := storeKey(namespace, key)

	err := s.db.Store().Delete(sk, &CacheEntry{})
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return true, nil
}

// ClearNamespace removes every entry in a namespace
func (s *CacheStorage) ClearNamespace(ctx context.Context, namespace string) error {
	if err := s.db.Store().DeleteMatching(&CacheEntry{}, badgerhold.Where("Namespace").Eq(namespace).Index("Namespace")); err != nil {
		return fmt.Errorf("failed to clear cache namespace %s: %w", namespace, err)
	}
	return nil
}

// ClearAll removes every cache entry
func (s *CacheStorage) ClearAll(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&CacheEntry{}, nil); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
