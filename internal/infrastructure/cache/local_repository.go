package cache

import (
	"context"
	"sync"
	"time"

	"github.com/platewise/v2/internal/ports/outbound"
)

// LocalRepository is an in-memory outbound.CacheRepository for tests and
// single-process deployments without Redis.
type LocalRepository struct {
	mu      sync.RWMutex
	entries map[string]localEntry
}

type localEntry struct {
	value     []byte
	expiresAt time.Time
}

var _ outbound.CacheRepository = (*LocalRepository)(nil)

// NewLocalRepository creates an empty in-memory repository.
func NewLocalRepository() *LocalRepository {
	return &LocalRepository{entries: make(map[string]localEntry)}
}

// Get returns the value stored under key, or ErrCacheMiss.
func (l *LocalRepository) Get(_ context.Context, key string) ([]byte, error) {
	l.mu.RLock()
	entry, ok := l.entries[key]
	l.mu.RUnlock()

	if !ok || (!entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)) {
		if ok {
			l.mu.Lock()
			delete(l.entries, key)
			l.mu.Unlock()
		}
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores value under key. A zero TTL means no expiry.
func (l *LocalRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := localEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	l.mu.Lock()
	l.entries[key] = entry
	l.mu.Unlock()
	return nil
}

// Delete removes key.
func (l *LocalRepository) Delete(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
	return nil
}

// Exists reports whether key is present and unexpired.
func (l *LocalRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := l.Get(ctx, key)
	if err != nil {
		return false, nil
	}
	return true, nil
}
