package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kyleking/starterdb/internal/config"
	"github.com/kyleking/starterdb/internal/logging"
	"github.com/kyleking/starterdb/internal/notify"
)

// TestDatabaseConfig returns a SQLite configuration pointing into a fresh
// temporary directory.
func TestDatabaseConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()

	return config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "test.db"),
		Engine:         "sqlite",
		MaxConnections: 1,
		QueryTimeout:   "30s",
	}
}

// NewTestDatabase opens a temporary SQLite database holding the tables of
// registry. Model failures are captured by the returned Recorder. The
// database is closed when the test ends.
func NewTestDatabase(t *testing.T, registry Registry, opts ...Option) (*Database, *Conn, *notify.Recorder) {
	t.Helper()

	recorder := &notify.Recorder{}

	base := []Option{
		WithRegistry(registry),
		WithSink(recorder),
		WithLogger(logging.Discard()),
	}

	db, err := NewDatabase(TestDatabaseConfig(t), append(base, opts...)...)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	conn, err := db.Open(context.Background())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if db.IsOpen() {
			if err := db.Close(); err != nil {
				t.Errorf("failed to close test database: %v", err)
			}
		}
	})

	return db, conn, recorder
}
