package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("vet calendar lock not acquired")
)

// Locker serializes the check-then-write sequences that touch a single
// vet's calendar: appointment create/reschedule/restore and availability
// slot add/edit.
type Locker interface {
	WithVetLock(ctx context.Context, vetID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisVetLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisVetLocker creates a locker that uses a per vet Redis key.
func NewRedisVetLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisVetLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisVetLocker) WithVetLock(ctx context.Context, vetID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:vet:%s", vetID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire vet lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisVetLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release vet lock: %w", err)
	}
	return nil
}
