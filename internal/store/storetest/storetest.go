// Package storetest opens a migrated throwaway SQLite store for tests.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/notebot/core/database"
	"github.com/m3rciful/notebot/internal/store"
	"github.com/m3rciful/notebot/migrations"
)

// New returns a Store over a fresh SQLite file in t.TempDir.
func New(t testing.TB) *store.Store {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	cfg := database.Config{
		Engine: database.EngineSQLite,
		Name:   filepath.Join(t.TempDir(), "notebot.db"),
	}
	require.NoError(t, database.RunMigrations(cfg, migrations.FS))
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	s := store.New(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
