package payment

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SettledCache remembers orders that have already been applied so repeated
// confirmations skip the provider round trip.
type SettledCache interface {
	Settled(ctx context.Context, orderRef string) (appointmentID string, ok bool, err error)
	MarkSettled(ctx context.Context, orderRef, appointmentID string) error
}

const settledKeyPrefix = "payment:settled:"

type RedisSettledCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisSettledCache(client redis.UniversalClient, ttl time.Duration) *RedisSettledCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSettledCache{client: client, ttl: ttl}
}

func (c *RedisSettledCache) Settled(ctx context.Context, orderRef string) (string, bool, error) {
	id, err := c.client.Get(ctx, settledKeyPrefix+orderRef).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (c *RedisSettledCache) MarkSettled(ctx context.Context, orderRef, appointmentID string) error {
	return c.client.Set(ctx, settledKeyPrefix+orderRef, appointmentID, c.ttl).Err()
}
