package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kyleking/starterdb/internal/logging"
)

// Executor runs SQL against an open connection or an open transaction.
// Models borrow an Executor; they never close it.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Dialect() Dialect
	Logger() *logging.Logger
}

// Conn is the single physical connection owned by a Database.
type Conn struct {
	id      string
	db      *sql.DB
	dialect Dialect
	logger  *logging.Logger
	trace   bool
}

var (
	_ Executor = (*Conn)(nil)
	_ Executor = (*Tx)(nil)
)

// ID identifies this connection in logs. Every Open yields a new ID.
func (c *Conn) ID() string { return c.id }

// DB exposes the underlying pool.
func (c *Conn) DB() *sql.DB { return c.db }

// Dialect returns the engine dialect of the connection.
func (c *Conn) Dialect() Dialect { return c.dialect }

// Logger returns the connection-scoped logger.
func (c *Conn) Logger() *logging.Logger { return c.logger }

// Exec executes a statement that returns no rows.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.traceStatement(query, args)
	return c.db.ExecContext(ctx, query, args...)
}

// Query executes a statement that returns rows.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	c.traceStatement(query, args)
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a statement expected to return at most one row.
func (c *Conn) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	c.traceStatement(query, args)
	return c.db.QueryRowContext(ctx, query, args...)
}

// Transaction runs fn inside a single atomic transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (c *Conn) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&Tx{tx: sqlTx, conn: c}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the physical connection.
func (c *Conn) Close() error {
	return c.db.Close()
}

func (c *Conn) traceStatement(query string, args []any) {
	if !c.trace {
		return
	}

	c.logger.WithField("sql", query).WithField("args", args).Info("Executing statement")
}

// Tx is an open transaction. Table DDL is only accepted through a Tx.
type Tx struct {
	tx   *sql.Tx
	conn *Conn
}

// Dialect returns the engine dialect of the owning connection.
func (t *Tx) Dialect() Dialect { return t.conn.dialect }

// Logger returns the owning connection's logger.
func (t *Tx) Logger() *logging.Logger { return t.conn.logger }

// Exec executes a statement inside the transaction.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	t.conn.traceStatement(query, args)
	return t.tx.ExecContext(ctx, query, args...)
}

// Query executes a row-returning statement inside the transaction.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	t.conn.traceStatement(query, args)
	return t.tx.QueryContext(ctx, query, args...)
}

// QueryRow executes a single-row statement inside the transaction.
func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	t.conn.traceStatement(query, args)
	return t.tx.QueryRowContext(ctx, query, args...)
}
