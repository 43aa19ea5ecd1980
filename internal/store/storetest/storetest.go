// Package storetest opens throwaway stores for tests: a fresh sqlite file per test,
// migrated with the production migrations.
package storetest

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/charbodjc/daddy-caddy/internal/database"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

// Logger discards everything; tests that care about logs build their own.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// New returns a Store over an empty, migrated database that is closed when t ends.
func New(t testing.TB) *store.Store {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "golf.db"), Logger())
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return store.New(db)
}
