package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyRepository remembers the response of a keyed request so a retry replays it.
type IdempotencyRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewIdempotencyRepository(client redis.UniversalClient, ttl time.Duration) *IdempotencyRepository {
	return &IdempotencyRepository{client: client, ttl: ttl}
}

func (r *IdempotencyRepository) key(scope, key string) string {
	return "idem:" + scope + ":" + key
}

// Get returns the stored payload, or found=false when the key is unknown.
func (r *IdempotencyRepository) Get(ctx context.Context, scope, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.key(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *IdempotencyRepository) Save(ctx context.Context, scope, key string, payload []byte) error {
	return r.client.Set(ctx, r.key(scope, key), payload, r.ttl).Err()
}
