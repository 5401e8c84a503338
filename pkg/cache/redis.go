package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	backendRedis = "redis"
	scanBatch    = 200
)

type redisCache struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) Cache {
	return &redisCache{rdb: rdb}
}

func (r *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (r *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return r.rdb.Persist(ctx, key).Err()
	}
	return r.rdb.Expire(ctx, key, ttl).Err()
}

func (r *redisCache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := r.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (r *redisCache) Backend() string { return backendRedis }

// Close leaves the shared client open; its owner closes it.
func (r *redisCache) Close() error { return nil }
