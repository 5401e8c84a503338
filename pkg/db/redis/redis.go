package redis

import (
	"context"
	"fmt"
	"time"

	"GameStore/pkg/config"

	"github.com/redis/go-redis/v9"
)

var Rdb *redis.Client

// NewClient builds an instrumented client; it does not contact the server.
func NewClient(cfg *config.RedisConfig) *redis.Client {
	c := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	c.AddHook(&redisMonitorHook{})
	return c
}

// Init creates Rdb and pings it. Rdb is set even when the ping fails so callers
// can decide to fall back.
func Init(cfg *config.RedisConfig) (err error) {
	Rdb = NewClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return Rdb.Ping(ctx).Err()
}

func Close() {
	if Rdb != nil {
		_ = Rdb.Close()
	}
}
