package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

var ErrLockTimeout = errors.New("timed out waiting for room lock")

// RedisLocker is a SET NX PX lock shared by every API instance using the
// same Redis.
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	retry     time.Duration
	log       *zap.Logger
}

func NewRedisLocker(client redis.UniversalClient, keyPrefix string, ttl, retry time.Duration, log *zap.Logger) *RedisLocker {
	if client == nil {
		panic("redis client cannot be nil for RedisLocker")
	}
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &RedisLocker{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		retry:     retry,
		log:       log,
	}
}

func (l *RedisLocker) key(roomID int64) string {
	return fmt.Sprintf("%sroom:%d:lock", l.keyPrefix, roomID)
}

func (l *RedisLocker) Lock(ctx context.Context, roomID int64) (func(), error) {
	key := l.key(roomID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: acquire %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be cancelled
			relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(relCtx, l.client, []string{key}, token).Err(); err != nil {
				l.log.Warn("failed to release room lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}
