// Package redis connects to Redis with retry and exponential backoff. An
// empty address means Redis is not configured and callers fall back to
// in-memory implementations.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/m3rciful/notebot/core/logger"
)

// ErrNotConfigured is returned by Connect when neither Addr nor URL is set.
var ErrNotConfigured = errors.New("redis: not configured")

const (
	defaultConnectTimeout = 30 * time.Second
	defaultRetryInterval  = 500 * time.Millisecond
	defaultMaxWait        = 5 * time.Second
	defaultPingTimeout    = 2 * time.Second
	defaultWarnThreshold  = 3
)

// Config describes the Redis endpoint. URL (or REDIS_URL) overrides the
// discrete fields.
type Config struct {
	Addr     string `yaml:"addr" envconfig:"ADDR"`
	URL      string `yaml:"url" envconfig:"URL"`
	Username string `yaml:"username" envconfig:"USERNAME"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	DB       int    `yaml:"db" envconfig:"DB"`
	PoolSize int    `yaml:"pool_size" envconfig:"POOL_SIZE"`

	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" envconfig:"CONNECT_TIMEOUT_SECONDS"`
}

// Configured reports whether a Redis endpoint was given.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.Addr) != "" || strings.TrimSpace(c.URL) != ""
}

// Normalize applies REDIS_URL and defaults.
func (c *Config) Normalize() {
	if env := strings.TrimSpace(os.Getenv("REDIS_URL")); env != "" {
		c.URL = env
	}
	if c.ConnectTimeoutSeconds <= 0 {
		c.ConnectTimeoutSeconds = int(defaultConnectTimeout / time.Second)
	}
}

func (c Config) options() (*goredis.Options, error) {
	if url := strings.TrimSpace(c.URL); url != "" {
		opts, err := goredis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("redis: parse url: %w", err)
		}
		if c.PoolSize > 0 {
			opts.PoolSize = c.PoolSize
		}
		return opts, nil
	}
	return &goredis.Options{
		Addr:     c.Addr,
		Username: c.Username,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	}, nil
}

type retryPolicy struct {
	total         time.Duration
	initialWait   time.Duration
	maxWait       time.Duration
	pingTimeout   time.Duration
	warnThreshold int
}

// Connect builds a client and pings it until it answers or the connect
// timeout elapses.
func Connect(ctx context.Context, cfg Config) (*goredis.Client, error) {
	cfg.Normalize()
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(opts)
	policy := retryPolicy{
		total:         time.Duration(cfg.ConnectTimeoutSeconds) * time.Second,
		initialWait:   defaultRetryInterval,
		maxWait:       defaultMaxWait,
		pingTimeout:   defaultPingTimeout,
		warnThreshold: defaultWarnThreshold,
	}
	if err := connectWithRetry(ctx, client, opts.Addr, policy); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func connectWithRetry(ctx context.Context, client *goredis.Client, addr string, p retryPolicy) error {
	ctx, cancel := context.WithTimeout(ctx, p.total)
	defer cancel()

	start := time.Now()
	wait := p.initialWait
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, p.pingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			level := slog.LevelInfo
			if attempt > 1 {
				level = slog.LevelWarn
			}
			logger.Redis.LogAttrs(ctx, level, "redis connected",
				slog.String("event", "redis.connect"),
				slog.String("status", "ok"),
				slog.String("addr", addr),
				slog.Int("attempts", attempt),
				slog.Duration("duration", logger.RoundMS(time.Since(start))),
			)
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Redis.Error("redis connect failed",
				slog.String("event", "redis.connect"),
				slog.String("status", "fail"),
				slog.String("addr", addr),
				slog.Int("attempts", attempt),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			return fmt.Errorf("redis unavailable at %s after %d attempts: %w", addr, attempt, err)
		case <-timer.C:
		}

		level := slog.LevelWarn
		if attempt > p.warnThreshold {
			level = slog.LevelError
		}
		logger.Redis.LogAttrs(ctx, level, "redis not ready",
			slog.String("event", "redis.ping"),
			slog.String("status", "retry"),
			slog.String("addr", addr),
			slog.Int("attempt", attempt),
			slog.Duration("next_retry_in", wait),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		wait *= 2
		if wait > p.maxWait {
			wait = p.maxWait
		}
	}
}
