package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aq2208/storefront-checkout/internal/usecase"
)

// RedisSessionStore keeps each collection of a user as one JSON string under
// session:<user>:<collection>. Every write refreshes the TTL.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(userID, collection string) string {
	return "session:" + userID + ":" + collection
}

func (s *RedisSessionStore) Get(ctx context.Context, userID, collection string, dst any) (bool, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(userID, collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session get %s: %w", collection, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("session decode %s: %w", collection, err)
	}
	return true, nil
}

func (s *RedisSessionStore) Set(ctx context.Context, userID, collection string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session encode %s: %w", collection, err)
	}
	return s.rdb.Set(ctx, sessionKey(userID, collection), raw, s.ttl).Err()
}

func (s *RedisSessionStore) Remove(ctx context.Context, userID string, collections ...string) error {
	if len(collections) == 0 {
		return nil
	}
	keys := make([]string, len(collections))
	for i, c := range collections {
		keys[i] = sessionKey(userID, c)
	}
	return s.rdb.Del(ctx, keys...).Err()
}

var _ usecase.SessionStore = (*RedisSessionStore)(nil)
