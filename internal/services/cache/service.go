package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/interfaces"
)

// memoryEntry is one value in the in-process tier
type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero value means no expiry
}

// Service is a two-tier cache. The memory tier answers first; on a
// durable-tier hit the value is backfilled into memory. Durable-tier
// failures are logged and degrade to misses so callers never fail on
// cache trouble.
type Service struct {
	useMemory  bool
	useDurable bool
	defaultTTL time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry // keyed namespace + "\x00" + key

	durable interfaces.CacheStorage
	logger  arbor.ILogger

	// now is swapped out by tests to control expiry
	now func() time.Time
}

// Compile-time interface assertion
var _ interfaces.CacheService = (*Service)(nil)

// NewService creates a cache service. durable may be nil when the
// durable tier is disabled.
func NewService(cfg *common.CacheConfig, durable interfaces.CacheStorage, logger arbor.ILogger) *Service {
	useDurable := cfg.UseDurable && durable != nil

	return &Service{
		useMemory:  cfg.UseMemory,
		useDurable: useDurable,
		defaultTTL: common.ParseDurationOr(cfg.DefaultTTL, time.Hour),
		entries:    make(map[string]memoryEntry),
		durable:    durable,
		logger:     logger,
		now:        time.Now,
	}
}

func memoryKey(namespace, key string) string {
	return namespace + "\x00" + key
}

// Get returns the cached value, or ok=false on miss or expiry
func (s *Service) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	if s.useMemory {
		if value, ok := s.getMemory(namespace, key); ok {
			return value, true
		}
	}

	if s.useDurable {
		value, ok, err := s.durable.Get(ctx, namespace, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("namespace", namespace).Msg("Durable cache read failed, treating as miss")
			return nil, false
		}
		if ok {
			// Backfill the memory tier so the next read stays local
			if s.useMemory {
				s.setMemory(namespace, key, value, s.defaultTTL)
			}
			return value, true
		}
	}

	return nil, false
}

// Set stores a value in all active tiers
func (s *Service) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	if s.useMemory {
		s.setMemory(namespace, key, value, ttl)
	}

	if s.useDurable {
		expiresAt := s.now().Add(ttl)
		if err := s.durable.Set(ctx, namespace, key, value, expiresAt); err != nil {
			s.logger.Warn().Err(err).Str("namespace", namespace).Msg("Durable cache write failed")
		}
	}
}

// Delete removes the entry, reporting true if any tier held it
func (s *Service) Delete(ctx context.Context, namespace, key string) bool {
	removed := false

	if s.useMemory {
		mk := memoryKey(namespace, key)
		s.mu.Lock()
		if _, ok := s.entries[mk]; ok {
			delete(s.entries, mk)
			removed = true
		}
		s.mu.Unlock()
	}

	if s.useDurable {
		ok, err := s.durable.Delete(ctx, namespace, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("namespace", namespace).Msg("Durable cache delete failed")
		} else if ok {
			removed = true
		}
	}

	return removed
}

// Clear removes every entry in a namespace
func (s *Service) Clear(ctx context.Context, namespace string) error {
	if s.useMemory {
		prefix := namespace + "\x00"
		s.mu.Lock()
		for k := range s.entries {
			if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
				delete(s.entries, k)
			}
		}
		s.mu.Unlock()
	}

	if s.useDurable {
		if err := s.durable.ClearNamespace(ctx, namespace); err != nil {
			return err
		}
	}

	return nil
}

// ClearAll removes every entry in every namespace
func (s *Service) ClearAll(ctx context.Context) error {
	if s.useMemory {
		s.mu.Lock()
		s.entries = make(map[string]memoryEntry)
		s.mu.Unlock()
	}

	if s.useDurable {
		if err := s.durable.ClearAll(ctx); err != nil {
			return err
		}
	}

	return nil
}

// getMemory reads from the memory tier, evicting expired entries lazily
func (s *Service) getMemory(namespace, key string) ([]byte, bool) {
	mk := memoryKey(namespace, key)

	s.mu.RLock()
	entry, ok := s.entries[mk]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock in case of a concurrent overwrite
		if current, still := s.entries[mk]; still && !current.expiresAt.IsZero() && s.now().After(current.expiresAt) {
			delete(s.entries, mk)
		}
		s.mu.Unlock()
		return nil, false
	}

	return entry.value, true
}

func (s *Service) setMemory(namespace, key string, value []byte, ttl time.Duration) {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[memoryKey(namespace, key)] = entry
	s.mu.Unlock()
}
