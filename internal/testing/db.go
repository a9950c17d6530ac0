// Package testing provides testing utilities and helpers for the folio project.
package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/aristath/folio/internal/database"
)

// NewTestDB creates a migrated SQLite database in a per-test temporary directory.
// The database is closed when the test finishes.
//
// Supported schema names:
//   - "client_data" - applies the client_data migrations
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileCache,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		// Tests may close the database themselves
		_ = db.Close()
	})
	return db
}

// GetRawConnection returns the underlying *sql.DB
func GetRawConnection(db *database.DB) *sql.DB {
	return db.Conn()
}
