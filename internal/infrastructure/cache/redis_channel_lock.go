package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockKeyPrefix = "channelsync:lock:"

// unlockScript deletes the key only when it still holds our token, so a lock
// that expired and was taken by another instance is left alone
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisChannelLock implements integration.RunLock using Redis.
// This is suitable for distributed deployments where several instances
// may schedule syncs for the same channel.
type RedisChannelLock struct {
	client    *redis.Client
	keyPrefix string

	mu     sync.Mutex
	tokens map[string]string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisChannelLock connects to Redis and creates a channel lock
func NewRedisChannelLock(cfg RedisConfig) (*RedisChannelLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisChannelLockWithClient(client, ""), nil
}

// NewRedisChannelLockWithClient creates a lock with an existing Redis client
func NewRedisChannelLockWithClient(client *redis.Client, keyPrefix string) *RedisChannelLock {
	if keyPrefix == "" {
		keyPrefix = defaultLockKeyPrefix
	}
	return &RedisChannelLock{
		client:    client,
		keyPrefix: keyPrefix,
		tokens:    make(map[string]string),
	}
}

// TryLock takes the lock for ttl using SET NX with expiry
func (l *RedisChannelLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}
	if ok {
		l.mu.Lock()
		l.tokens[key] = token
		l.mu.Unlock()
	}
	return ok, nil
}

// Unlock releases a lock taken by this instance
func (l *RedisChannelLock) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	token, held := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !held {
		return nil
	}

	if err := unlockScript.Run(ctx, l.client, []string{l.keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %q: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisChannelLock) Close() error {
	return l.client.Close()
}

// Ping checks the Redis connection
func (l *RedisChannelLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (l *RedisChannelLock) GetClient() *redis.Client {
	return l.client
}

var _ integration.RunLock = (*RedisChannelLock)(nil)
