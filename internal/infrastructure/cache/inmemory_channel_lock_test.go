package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/channelsync/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryChannelLock(t *testing.T) {
	ctx := context.Background()

	t.Run("second holder is refused until unlock", func(t *testing.T) {
		lock := NewInMemoryChannelLock()
		require.NoError(t, lock.Ping(ctx))

		ok, err := lock.TryLock(ctx, "channel-sync:a", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = lock.TryLock(ctx, "channel-sync:a", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, lock.Unlock(ctx, "channel-sync:a"))

		ok, err = lock.TryLock(ctx, "channel-sync:a", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		lock := NewInMemoryChannelLock()

		ok, _ := lock.TryLock(ctx, "channel-sync:a", time.Hour)
		assert.True(t, ok)
		ok, _ = lock.TryLock(ctx, "channel-sync:b", time.Hour)
		assert.True(t, ok)
	})

	t.Run("expired lock can be taken again", func(t *testing.T) {
		lock := NewInMemoryChannelLock()
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		lock.now = func() time.Time { return now }

		ok, _ := lock.TryLock(ctx, "channel-sync:a", time.Minute)
		assert.True(t, ok)

		now = now.Add(2 * time.Minute)
		ok, _ = lock.TryLock(ctx, "channel-sync:a", time.Minute)
		assert.True(t, ok)
	})

	t.Run("unlocking a free key is a no-op", func(t *testing.T) {
		assert.NoError(t, NewInMemoryChannelLock().Unlock(ctx, "missing"))
	})
}

func TestChannelLockFactory(t *testing.T) {
	t.Run("uses the in-memory lock when Redis is disabled", func(t *testing.T) {
		lock, err := NewChannelLockFactory(config.RedisConfig{Enabled: false}).CreateLock()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryChannelLock{}, lock)
	})

	t.Run("falls back when Redis is unreachable", func(t *testing.T) {
		cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
		lock, err := NewChannelLockFactory(cfg).CreateLock()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryChannelLock{}, lock)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
		_, err := NewChannelLockFactory(cfg, WithInMemoryFallback(false)).CreateLock()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
