// Package cache owns the shared Redis client behind the replay nonce
// cache, the comment rate limiter and the ws-key store. Redis being down
// degrades those features but never blocks the service, so connection
// failures leave the client nil instead of aborting startup.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"parley/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// errorHook counts failed commands so a degraded cache shows up on the
// dashboard.
type errorHook struct{}

func (h errorHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h errorHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h errorHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// InitRedis connects using either a redis:// URL or a bare host:port
// address. On any failure the client stays nil and callers take their
// degraded paths.
func InitRedis(addr string) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			observability.GlobalLogger.Warn("invalid redis URL, continuing without cache", "addr", addr, "error", err)
			client = nil
			return
		}
		opts = parsed
	}

	c := redis.NewClient(opts)
	c.AddHook(errorHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		observability.GlobalLogger.Warn("redis unreachable, continuing without cache", "error", err)
		client = nil
		return
	}

	client = c
	observability.GlobalLogger.Info("redis connected", "addr", opts.Addr)
}

// GetClient returns the shared client, nil when Redis is unavailable.
func GetClient() *redis.Client {
	return client
}
