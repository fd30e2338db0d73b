package database

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/notebot/core/logger"
)

// migration is one up file of the source, e.g. 000002_links.up.sql.
type migration struct {
	version uint64
	name    string
}

// upMigrations lists the up files under dir ordered by version.
func upMigrations(source fs.FS, dir string) []migration {
	entries, _ := fs.ReadDir(source, dir)
	var out []migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, migration{version: v, name: name})
	}
	slices.SortFunc(out, func(a, b migration) int { return cmp.Compare(a.version, b.version) })
	return out
}

// between returns the names of migrations in (from, to].
func between(all []migration, from, to uint64) []string {
	var names []string
	for _, m := range all {
		if m.version > from && m.version <= to {
			names = append(names, m.name)
		}
	}
	return names
}

// RunMigrations brings the schema up to the newest migration for
// cfg.Engine. source holds one directory per engine ("postgres",
// "sqlite3") of golang-migrate files. Running it again is a no-op.
func RunMigrations(cfg Config, source fs.FS) error {
	if source == nil {
		return errors.New("migrations: nil source")
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	ctx := context.Background()
	all := upMigrations(source, cfg.Engine)
	if logger.ShouldSampleDebug() {
		names := make([]string, len(all))
		for i, m := range all {
			names[i] = m.name
		}
		preview, more := logger.SummarizeStrings(names, 6)
		logger.Debug(ctx, "db.migrate", "db.migrate.resolve",
			slog.String("engine", cfg.Engine),
			slog.Int("count", len(all)),
			slog.String("files", preview),
			slog.Bool("truncated", more),
		)
	}

	m, err := openMigrator(cfg, source)
	if err != nil {
		logger.Error(ctx, "db.migrate", "db.migrate.init",
			slog.String("status", "fail"),
			slog.String("engine", cfg.Engine),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("migrations: %w", err)
	}
	defer func() {
		if err := errors.Join(m.Close()); err != nil {
			logger.Warn(ctx, "db.migrate", "db.migrate.close", slog.String("err", err.Error()))
		}
	}()

	from, err := version(m)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, "db.migrate", "db.migrate.apply",
			slog.String("status", "fail"),
			slog.Uint64("from_ver", from),
			slog.Duration("duration", time.Since(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("migrations: up: %w", err)
	}
	to, err := version(m)
	if err != nil {
		return err
	}

	applied := between(all, from, to)
	preview, _ := logger.SummarizeStrings(applied, 6)
	logger.Info(ctx, "db.migrate", "db.migrate.summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", from),
		slog.Uint64("to_ver", to),
		slog.Int("count", len(applied)),
		slog.String("files", preview),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func version(m *migrate.Migrate) (uint64, error) {
	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("migrations: read version: %w", err)
	case dirty:
		return 0, fmt.Errorf("migrations: version %d is dirty; fix the schema and force the version", v)
	}
	return uint64(v), nil
}

// openMigrator uses its own connection; closing the migrator leaves the
// application pool alone.
func openMigrator(cfg Config, source fs.FS) (*migrate.Migrate, error) {
	src, err := iofs.New(source, cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	db, err := sql.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("open connection: %w", err)
	}
	var drv migratedb.Driver
	if cfg.Engine == EngineSQLite {
		drv, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	} else {
		drv, err = postgres.WithInstance(db, &postgres.Config{})
	}
	if err != nil {
		_ = src.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s driver: %w", cfg.Engine, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, cfg.Engine, drv)
	if err != nil {
		_ = src.Close()
		_ = drv.Close()
		return nil, err
	}
	return m, nil
}
