package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a per-key mutex shared by every instance talking to the same Redis.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger *zap.Logger
}

// NewRedisLocker holds each lock for at most ttl and waits up to wait to acquire one.
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait, retry: 25 * time.Millisecond, logger: logger}
}

func (l *RedisLocker) lockKey(key string) string {
	return "lock:" + key
}

// Lock blocks until key is held, ctx ends, or the wait budget is spent.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	k := l.lockKey(key)
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func() {
				// Released with a fresh context so a cancelled request still frees the key.
				rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				l.release(rctx, k, token)
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// release frees k if it still holds token. A failure leaves the key held until its ttl
// runs out, so it is logged for the operator.
func (l *RedisLocker) release(ctx context.Context, k, token string) {
	n, err := releaseScript.Run(ctx, l.client, []string{k}, token).Int()
	switch {
	case err != nil:
		l.logger.Error("Failed to release lock",
			zap.String("key", k),
			zap.Duration("held_until_ttl", l.ttl),
			zap.Error(err))
	case n == 0:
		l.logger.Warn("Lock expired before release", zap.String("key", k))
	}
}
