// Package dbtest opens throwaway SQLite stores for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"example/waxroom/internal/database"
)

// New returns a migrated, empty store backed by a file in t.TempDir. It is
// closed when the test ends.
func New(t testing.TB) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "waxroom.db")
	db, err := database.Open(context.Background(), "sqlite3", "file:"+path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// Seeded is New plus the embedded catalog.
func Seeded(t testing.TB) *database.DB {
	t.Helper()

	db := New(t)
	if _, err := db.SeedCatalog(context.Background(), ""); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}
	return db
}
