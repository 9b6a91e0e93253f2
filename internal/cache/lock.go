package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fjod/storefront/internal/monitoring"
)

// releaseScript deletes the lock only if it is still owned by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLock is a SETNX lock shared by every storefront replica.
type RedisLock struct {
	client     *redis.Client
	expiration time.Duration
}

func NewRedisLock(client *redis.Client, expiration time.Duration) *RedisLock {
	if expiration <= 0 {
		expiration = 30 * time.Second
	}
	return &RedisLock{client: client, expiration: expiration}
}

// Acquire takes lock:<key>. It returns ErrLockHeld when another holder owns it.
// The returned func releases the lock.
func (l *RedisLock) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey, token, l.expiration).Result()
	if err != nil {
		monitoring.RecordCheckoutLockFailure("redis_error")
		return nil, fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		monitoring.RecordCheckoutLockFailure("already_locked")
		return nil, ErrLockHeld
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err()
	}, nil
}

func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
