package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "rl:"

// Redis shares limits across bot replicas. The first event in a window
// creates "<prefix><key>" with the interval as expiry; later events are
// limited until it expires.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed Limiter. Prefix may be empty.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// Allow implements Limiter.
func (r *Redis) Allow(ctx context.Context, key string, interval time.Duration) (bool, error) {
	if interval <= 0 {
		return true, nil
	}
	ok, err := r.client.SetNX(ctx, r.prefix+key, 1, interval).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	return ok, nil
}
