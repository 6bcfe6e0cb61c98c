package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/usecase"
)

type RedisStatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatusCache(rdb *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{rdb: rdb, ttl: ttl}
}

func statusKey(orderID string) string {
	return "order:status:" + orderID
}

func (r *RedisStatusCache) SetStatus(ctx context.Context, orderID string, status entity.Status) error {
	return r.rdb.Set(ctx, statusKey(orderID), string(status), r.ttl).Err()
}

func (r *RedisStatusCache) SeedStatus(ctx context.Context, orderID string, status entity.Status) error {
	return r.rdb.SetNX(ctx, statusKey(orderID), string(status), r.ttl).Err()
}

func (r *RedisStatusCache) GetStatus(ctx context.Context, orderID string) (entity.Status, bool, error) {
	val, err := r.rdb.Get(ctx, statusKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entity.Status(val), true, nil
}

var _ usecase.OrderStatusCache = (*RedisStatusCache)(nil)
