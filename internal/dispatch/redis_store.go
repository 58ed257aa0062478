package dispatch

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMarkerStore keeps dispatch markers in Redis with a TTL.
type RedisMarkerStore struct {
	rdb *redis.Client
}

func NewRedisMarkerStore(rdb *redis.Client) *RedisMarkerStore {
	return &RedisMarkerStore{rdb: rdb}
}

func (s *RedisMarkerStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisMarkerStore) Set(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, 1, ttl).Err()
}

// DeleteAll removes every dispatch marker; used by the full reset.
func (s *RedisMarkerStore) DeleteAll(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, markerKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
