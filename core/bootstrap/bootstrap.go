// Package bootstrap brings up the shared infrastructure of a bot.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/notebot/core/config"
	coredatabase "github.com/m3rciful/notebot/core/database"
	"github.com/m3rciful/notebot/core/logger"
	coreredis "github.com/m3rciful/notebot/core/redis"
)

// Options control the bootstrap pipeline. Nil hooks use the core defaults.
type Options struct {
	Config     *coreconfig.Config
	Database   coredatabase.Config
	Redis      coreredis.Config
	Migrations fs.FS

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(coredatabase.Config, fs.FS) error
	ConnectRedis func(context.Context, coreredis.Config) (*goredis.Client, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// Redis is nil when it is not configured.
type Result struct {
	DB    *sqlx.DB
	Redis *goredis.Client
}

// Close releases the database pool and the Redis client.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	return errors.Join(errs...)
}

// Run initializes the logger, connects to the database, applies migrations
// and connects to Redis. Migrations are skipped when Options.Migrations is nil.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	res := &Result{DB: db}

	if opts.Migrations != nil {
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(opts.Database, opts.Migrations); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	connectRedis := opts.ConnectRedis
	if connectRedis == nil {
		connectRedis = coreredis.Connect
	}
	client, err := connectRedis(ctx, opts.Redis)
	switch {
	case errors.Is(err, coreredis.ErrNotConfigured):
		logger.Redis.Info("redis not configured, using in-memory state",
			slog.String("event", "redis.connect"),
			slog.String("status", "skip"),
		)
	case err != nil:
		_ = res.Close()
		return nil, fmt.Errorf("bootstrap: redis initialization failed: %w", err)
	default:
		res.Redis = client
	}
	return res, nil
}
