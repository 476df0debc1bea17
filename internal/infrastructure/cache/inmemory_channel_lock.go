package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/channelsync/internal/domain/integration"
)

// lockEntry represents a held lock with expiration
type lockEntry struct {
	expiresAt time.Time
}

// InMemoryChannelLock implements integration.RunLock using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryChannelLock struct {
	mu      sync.Mutex
	entries map[string]lockEntry
	now     func() time.Time
}

// NewInMemoryChannelLock creates a new in-memory channel lock
func NewInMemoryChannelLock() *InMemoryChannelLock {
	return &InMemoryChannelLock{
		entries: make(map[string]lockEntry),
		now:     time.Now,
	}
}

// TryLock takes the lock for ttl. It returns false while another holder's
// lock has not expired.
func (l *InMemoryChannelLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, held := l.entries[key]; held && now.Before(e.expiresAt) {
		return false, nil
	}
	l.entries[key] = lockEntry{expiresAt: now.Add(ttl)}
	return true, nil
}

// Unlock releases the lock. Releasing a lock that is not held is a no-op.
func (l *InMemoryChannelLock) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}

// Close is a no-op kept for symmetry with RedisChannelLock
func (l *InMemoryChannelLock) Close() error {
	return nil
}

// Ping always succeeds
func (l *InMemoryChannelLock) Ping(context.Context) error {
	return nil
}

var _ integration.RunLock = (*InMemoryChannelLock)(nil)
