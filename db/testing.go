package db

import (
	"path/filepath"
	"testing"

	"health-monitor/confs"
)

// OpenTestDatabase connects to a fresh SQLite file under t.TempDir and closes
// it when the test ends.
func OpenTestDatabase(t testing.TB) Database {
	t.Helper()

	database, err := Connect(confs.DatabaseConfig{
		Type:     confs.SqliteDbType,
		Path:     filepath.Join(t.TempDir(), "health.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}
