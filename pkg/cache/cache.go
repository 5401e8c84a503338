// Package cache is the key-value store the services use for sessions, reset tokens and
// read-through entries. Redis is preferred; a bounded in-memory store is used when Redis
// cannot be reached at startup.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"GameStore/pkg/config"
	"GameStore/pkg/monitor"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// ErrRejected is returned by Set when the memory cache declined to store the value.
var ErrRejected = errors.New("cache: write rejected")

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value; ttl <= 0 keeps it until deleted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Expire resets the ttl of an existing key; missing keys are ignored.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// DeletePattern removes every key matching a glob and returns how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Backend() string
	Close() error
}

// New returns the Redis backed cache when rdb answers a ping, otherwise the memory cache.
func New(ctx context.Context, rdb *redis.Client, cfg *config.CacheConfig) Cache {
	if rdb != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			monitor.SetCacheBackend(backendRedis)
			zap.L().Info("cache backend selected", zap.String("backend", backendRedis))
			return NewRedis(rdb)
		}
		zap.L().Warn("redis unreachable, falling back to in-memory cache", zap.Error(err))
	}
	if cfg == nil {
		cfg = &config.CacheConfig{}
	}
	mem, err := NewMemory(cfg.MemoryMaxEntries, cfg.SweepInterval)
	if err != nil {
		// only reachable with a broken ristretto config; use the defaults instead
		zap.L().Error("memory cache config rejected, using defaults", zap.Error(err))
		mem, _ = NewMemory(0, 0)
	}
	monitor.SetCacheBackend(backendMemory)
	zap.L().Info("cache backend selected", zap.String("backend", backendMemory))
	return mem
}

// GetJSON decodes the cached value into dst. It reports false on a miss.
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) (bool, error) {
	raw, err := c.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode cached %q: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cached %q: %w", key, err)
	}
	return c.Set(ctx, key, string(data), ttl)
}
