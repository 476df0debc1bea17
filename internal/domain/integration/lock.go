package integration

import (
	"context"
	"time"
)

// RunLock serializes sync operations per channel across process instances.
// TryLock returns false without error when the key is already held.
type RunLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}
