package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/m3rciful/notebot/core/logger"
)

const (
	firstRetryWait = 250 * time.Millisecond
	maxRetryWait   = 4 * time.Second
)

// Connect opens and pings the pool described by cfg. A database that is
// still starting is retried with doubling waits until
// connect_timeout_seconds runs out.
func Connect(cfg Config) (*sqlx.DB, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ConnectTimeoutSeconds)*time.Second)
	defer cancel()

	target := []slog.Attr{
		slog.String("engine", cfg.Engine),
		slog.String("driver", cfg.Driver),
		slog.String("host", cfg.Host),
		slog.String("db", cfg.Name),
	}
	start := time.Now()
	var (
		db       *sqlx.DB
		err      error
		attempts int
	)
	for wait := firstRetryWait; ; wait = min(2*wait, maxRetryWait) {
		attempts++
		if db, err = sqlx.ConnectContext(ctx, cfg.DriverName(), cfg.DSN()); err == nil {
			break
		}
		logger.Warn(ctx, "db", "db.ping", append(target,
			slog.String("status", "retry"),
			slog.Int("attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("err", err.Error()),
		)...)
		if !sleep(ctx, wait) {
			logger.Error(ctx, "db", "db.connect", append(target,
				slog.String("status", "fail"),
				slog.Int("attempts", attempts),
				slog.Duration("duration", time.Since(start)),
				slog.String("err", err.Error()),
			)...)
			return nil, fmt.Errorf("db connect after %d attempts: %w", attempts, err)
		}
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	logger.Info(ctx, "db", "db.connect", append(target,
		slog.String("status", "ok"),
		slog.String("port", cfg.Port),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Int("attempts", attempts),
		slog.Duration("duration", time.Since(start)),
	)...)
	return db, nil
}

// sleep waits d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
