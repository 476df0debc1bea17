package cache

import (
	"context"
	"fmt"

	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ChannelLock is a run lock that owns a connection
type ChannelLock interface {
	integration.RunLock
	Ping(ctx context.Context) error
	Close() error
}

// ChannelLockFactory creates channel run locks based on configuration
type ChannelLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ChannelLockFactoryOption is a functional option for configuring the factory
type ChannelLockFactoryOption func(*ChannelLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ChannelLockFactoryOption {
	return func(f *ChannelLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory lock when Redis is unavailable.
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) ChannelLockFactoryOption {
	return func(f *ChannelLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewChannelLockFactory creates a new factory
func NewChannelLockFactory(cfg config.RedisConfig, opts ...ChannelLockFactoryOption) *ChannelLockFactory {
	f := &ChannelLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateLock returns a Redis lock when Redis is enabled and reachable and an
// in-memory lock otherwise. Falling back is refused when disabled by option.
func (f *ChannelLockFactory) CreateLock() (ChannelLock, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory channel lock")
		return NewInMemoryChannelLock(), nil
	}

	lock, err := NewRedisChannelLock(RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis channel lock", zap.String("addr", f.redisConfig.Addr()))
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for channel locks but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory channel lock. "+
		"Concurrent instances may sync the same channel at once.",
		zap.Error(err),
	)
	return NewInMemoryChannelLock(), nil
}
