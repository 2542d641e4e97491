package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/starterdb/internal/config"
	"github.com/kyleking/starterdb/internal/errors"
	"github.com/kyleking/starterdb/internal/logging"
	"github.com/kyleking/starterdb/internal/notify"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		engine  string
		want    Dialect
		wantErr bool
	}{
		{engine: "", want: SQLite},
		{engine: "sqlite", want: SQLite},
		{engine: "SQLite", want: SQLite},
		{engine: "duckdb", want: DuckDB},
		{engine: "postgres", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			got, err := DialectFor(tt.engine)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrTypeConfig))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLiteDialect_Statements(t *testing.T) {
	columns, err := effectiveSchema("widgets", widgets.Columns)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS widgets(id INTEGER PRIMARY KEY NOT NULL, product_id INTEGER NOT NULL, name TEXT NOT NULL);",
	}, SQLite.CreateTable("widgets", columns))

	assert.Equal(t, []string{"DROP TABLE IF EXISTS widgets;"}, SQLite.DropTable("widgets"))
	assert.Equal(t, "sqlite3", SQLite.DriverName())
}

func TestDuckDBDialect_Statements(t *testing.T) {
	columns, err := effectiveSchema("widgets", widgets.Columns)
	require.NoError(t, err)

	stmts := DuckDB.CreateTable("widgets", columns)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE SEQUENCE IF NOT EXISTS widgets_id_seq START 1;", stmts[0])
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS widgets(id INTEGER PRIMARY KEY DEFAULT nextval('widgets_id_seq'), product_id INTEGER NOT NULL, name TEXT NOT NULL);",
		stmts[1])

	assert.Equal(t, IDColumn, columns[0], "dialect must not modify the schema it is given")

	assert.Equal(t, []string{
		"DROP TABLE IF EXISTS widgets;",
		"DROP SEQUENCE IF EXISTS widgets_id_seq;",
	}, DuckDB.DropTable("widgets"))
}

func TestDuckDB_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping DuckDB integration test in short mode")
	}

	cfg := config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "test.duckdb"),
		Engine:         "duckdb",
		MaxConnections: 1,
		QueryTimeout:   "30s",
	}

	recorder := &notify.Recorder{}

	db, err := NewDatabase(cfg,
		WithRegistry(Registry{widgets}),
		WithSink(recorder),
		WithLogger(logging.Discard()),
		WithMigrations(Migration{Version: 1, Description: "noop"}),
	)
	require.NoError(t, err)

	ctx := context.Background()

	conn, err := db.Open(ctx)
	require.NoError(t, err)

	defer db.Close()

	assert.Equal(t, DuckDB, conn.Dialect())
	assert.Equal(t, 1, db.Version())

	m, err := NewModel(conn, widgets, recorder)
	require.NoError(t, err)

	first, ok := m.Create(ctx, NewValues("product_id", 1, "name", "duck"))
	require.True(t, ok)

	second, ok := m.Create(ctx, NewValues("product_id", 2, "name", "goose"))
	require.True(t, ok)
	assert.Greater(t, second, first)

	row := m.GetOne(ctx, ByID(first), nil)
	require.NotNil(t, row)

	name, _ := row.Get("name")
	assert.Equal(t, "duck", name)

	rows := m.Get(ctx, Where("product_id", Op(">=", 1)), &Options{OrderBy: "id", Order: "asc", Limit: 10})
	require.Len(t, rows, 2)

	deleted, ok := m.Delete(ctx, ByID(second), nil)
	require.True(t, ok)
	assert.Equal(t, second, deleted)

	count, ok := m.Count(ctx, Filter{})
	require.True(t, ok)
	assert.Equal(t, int64(1), count)
	assert.Zero(t, recorder.Count())

	require.NoError(t, db.DropAll(ctx))

	count, ok = m.Count(ctx, Filter{})
	require.True(t, ok)
	assert.Zero(t, count)
}
