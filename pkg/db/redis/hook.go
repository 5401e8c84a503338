package redis

import (
	"context"
	"net"
	"time"

	"GameStore/pkg/monitor"

	"github.com/redis/go-redis/v9"
)

type redisMonitorHook struct{}

func (h *redisMonitorHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *redisMonitorHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		monitor.ObserveRedis(cmd.Name(), time.Since(start), err == nil || err == redis.Nil)
		return err
	}
}

func (h *redisMonitorHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		monitor.ObserveRedis("pipeline", time.Since(start), err == nil)
		return err
	}
}
