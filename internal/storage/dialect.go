package storage

import (
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"     // DuckDB driver
	_ "github.com/ncruces/go-sqlite3/driver" // SQLite driver
	_ "github.com/ncruces/go-sqlite3/embed"  // bundled SQLite build

	"github.com/kyleking/starterdb/internal/errors"
)

// Dialect holds the engine-specific parts of table DDL. Everything else the
// storage layer emits (SELECT, INSERT ... RETURNING, DELETE ... RETURNING,
// ? placeholders) is shared by the supported engines.
type Dialect interface {
	// Name is the engine name used in configuration.
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	// CreateTable returns the statements creating table with the given
	// effective schema. The first column is always the synthetic id.
	CreateTable(table string, columns []Column) []string
	// DropTable returns the statements removing table and anything
	// CreateTable created alongside it.
	DropTable(table string) []string
	// OffsetRequiresLimit reports whether OFFSET is only accepted after a
	// LIMIT clause.
	OffsetRequiresLimit() bool
}

// DialectFor returns the dialect of the named engine.
func DialectFor(engine string) (Dialect, error) {
	switch strings.ToLower(engine) {
	case "", "sqlite":
		return SQLite, nil
	case "duckdb":
		return DuckDB, nil
	default:
		return nil, errors.Newf(errors.ErrTypeConfig, "unsupported database engine: %s", engine).
			WithSuggestion("Set STARTERDB_DB_ENGINE to sqlite or duckdb")
	}
}

var (
	// SQLite stores the id as the rowid alias, so the engine assigns it.
	SQLite Dialect = sqliteDialect{}
	// DuckDB has no rowid; ids come from a per-table sequence.
	DuckDB Dialect = duckdbDialect{}
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite3" }

func (sqliteDialect) CreateTable(table string, columns []Column) []string {
	return []string{createTableSQL(table, columns)}
}

func (sqliteDialect) DropTable(table string) []string {
	return []string{fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)}
}

// SQLite reads a negative LIMIT as unbounded.
func (sqliteDialect) OffsetRequiresLimit() bool { return true }

type duckdbDialect struct{}

func (duckdbDialect) Name() string       { return "duckdb" }
func (duckdbDialect) DriverName() string { return "duckdb" }

func (duckdbDialect) CreateTable(table string, columns []Column) []string {
	seq := sequenceName(table)

	cols := make([]Column, len(columns))
	copy(cols, columns)

	for i := range cols {
		if cols[i].Name == IDColumnName {
			cols[i].Type = fmt.Sprintf("INTEGER PRIMARY KEY DEFAULT nextval('%s')", seq)
		}
	}

	return []string{
		fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START 1;", seq),
		createTableSQL(table, cols),
	}
}

func (duckdbDialect) DropTable(table string) []string {
	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s;", table),
		fmt.Sprintf("DROP SEQUENCE IF EXISTS %s;", sequenceName(table)),
	}
}

func (duckdbDialect) OffsetRequiresLimit() bool { return false }

func sequenceName(table string) string {
	return table + "_id_seq"
}

func createTableSQL(table string, columns []Column) string {
	defs := make([]string, len(columns))
	for i, column := range columns {
		defs[i] = column.Name + " " + column.Type
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s(%s);", table, strings.Join(defs, ", "))
}
