package repository

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errDialRefused = errors.New("dial refused")

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:       "redis.invalid:6379",
		MaxRetries: -1,
		Dialer: func(context.Context, string, string) (net.Conn, error) {
			return nil, errDialRefused
		},
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLocker_ConnectionFailureIsNotTimeout(t *testing.T) {
	locker := NewRedisLocker(unreachableRedis(t), time.Second, time.Second, zap.NewNop())

	unlock, err := locker.Lock(context.Background(), "cart:u1")
	require.Error(t, err)
	assert.Nil(t, unlock)
	assert.NotErrorIs(t, err, ErrLockTimeout)
}

func TestIdempotencyRepository_ConnectionFailureSurfaces(t *testing.T) {
	repo := NewIdempotencyRepository(unreachableRedis(t), time.Minute)

	_, found, err := repo.Get(context.Background(), "cart-add", "k1")
	assert.Error(t, err)
	assert.False(t, found)
	assert.Error(t, repo.Save(context.Background(), "cart-add", "k1", []byte(`{}`)))
}

// scriptFailureHook grants every SET NX and fails every script call, without a server.
type scriptFailureHook struct{}

func (scriptFailureHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (scriptFailureHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		switch cmd.Name() {
		case "set":
			cmd.(*redis.BoolCmd).SetVal(true)
			return nil
		case "evalsha", "eval":
			err := errors.New("connection reset by peer")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (scriptFailureHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisLocker_ReleaseFailureIsLogged(t *testing.T) {
	client := unreachableRedis(t)
	client.AddHook(scriptFailureHook{})
	core, logs := observer.New(zapcore.WarnLevel)
	locker := NewRedisLocker(client, time.Second, time.Second, zap.New(core))

	unlock, err := locker.Lock(context.Background(), "cart:u1")
	require.NoError(t, err)
	unlock()

	entries := logs.FilterMessage("Failed to release lock").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "lock:cart:u1", entries[0].ContextMap()["key"])
}
