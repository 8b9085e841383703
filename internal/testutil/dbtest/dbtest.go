// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"runtime"
	"testing"

	"tearound/internal/database"
)

// MigrationsPath returns the repository's migrations directory
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// NewSQLite creates a SQLite database in a temp dir, applies all migrations
// and closes it when the test ends.
func NewSQLite(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.RunMigrations(MigrationsPath()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}
