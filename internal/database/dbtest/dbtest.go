// Package dbtest opens throwaway local stores for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/matthieukhl/pocketpos/internal/config"
	"github.com/matthieukhl/pocketpos/internal/database"
)

// New returns a fresh database with the schema applied. It is closed when
// the test ends.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.NewConnection(&config.DBConfig{
		Path:         filepath.Join(t.TempDir(), "pos.db"),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}
