package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "vidtube:login:"

// redisCmdable is the part of redis.Cmdable the limiter uses.
type redisCmdable interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter keeps one INCR counter per key that expires after the window.
type RedisLimiter struct {
	client redisCmdable
	limit  int
	period time.Duration
}

// NewRedisClient builds a go-redis client for addr.
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

func NewRedisLimiter(client redisCmdable, limit int, period time.Duration) *RedisLimiter {
	if period < time.Second {
		period = time.Minute
	}
	return &RedisLimiter{client: client, limit: limit, period: period}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 {
		return true, 0, nil
	}
	key = keyPrefix + key

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.period).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire: %w", err)
		}
	}
	if count <= int64(l.limit) {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis ttl: %w", err)
	}
	if ttl < 0 {
		// Re-arm the window if the first EXPIRE was lost.
		if err := l.client.Expire(ctx, key, l.period).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire: %w", err)
		}
		return false, l.period, nil
	}
	return false, ttl, nil
}
