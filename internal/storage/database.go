package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kyleking/starterdb/internal/config"
	"github.com/kyleking/starterdb/internal/errors"
	"github.com/kyleking/starterdb/internal/logging"
	"github.com/kyleking/starterdb/internal/notify"
)

// Database owns the single physical connection to the database file.
// It moves between closed and open and may be reopened after Close.
// Open, Close and GetDatabase are safe for concurrent use.
type Database struct {
	mu      sync.Mutex
	cfg     config.DatabaseConfig
	dialect Dialect
	runner  *MigrationRunner
	sink    notify.Sink
	logger  *logging.Logger

	conn    *Conn
	version int
}

// NewDatabase creates a closed handle. SQLITE_DROP_TABLES from cfg is
// applied unless a WithDropTables option overrides it.
func NewDatabase(cfg config.DatabaseConfig, opts ...Option) (*Database, error) {
	dialect, err := DialectFor(cfg.Engine)
	if err != nil {
		return nil, err
	}

	s := newSettings(append([]Option{WithDropTables(cfg.DropTables)}, opts...))

	return &Database{
		cfg:     cfg,
		dialect: dialect,
		runner:  newMigrationRunner(s),
		sink:    s.sink,
		logger:  s.logger.WithField("path", cfg.Path),
	}, nil
}

// Open opens the database file, brings the tables up to date and returns
// the connection. Opening an open handle closes the held connection first
// and replaces it: models and stores bound to the previous Conn fail from
// then on and must be rebound to the returned one, e.g. through Model or
// GetDatabase.
func (d *Database) Open(ctx context.Context) (*Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.open(ctx)
}

func (d *Database) open(ctx context.Context) (*Conn, error) {
	if d.conn != nil {
		d.logger.WithField("previous", d.conn.ID()).Warn("Database opened while already open; replacing connection")

		if err := d.conn.Close(); err != nil {
			d.logger.ErrorWithErr("Failed to close previous connection", err)
		}

		d.conn = nil
		d.version = 0
	}

	db, err := openPool(d.cfg, d.dialect)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to open database").
			WithSuggestion("Check that the database path is writable")
	}

	id := uuid.New().String()

	conn := &Conn{
		id:      id,
		db:      db,
		dialect: d.dialect,
		logger:  d.logger.WithField("conn", id),
		trace:   d.cfg.Debug,
	}

	updateCtx, cancel := context.WithTimeout(ctx, d.cfg.QueryTimeoutDuration())
	defer cancel()

	version, err := d.runner.UpdateTables(updateCtx, conn)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	d.conn = conn
	d.version = version

	conn.logger.WithFields(map[string]interface{}{
		"engine":  d.dialect.Name(),
		"version": version,
	}).Debug("Database opened")

	return conn, nil
}

// Close closes the held connection. Closing a handle that is not open
// returns an ErrTypeNotOpen error.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return errors.NewNotOpenError("close")
	}

	conn := d.conn
	d.conn = nil
	d.version = 0

	if err := conn.Close(); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to close database")
	}

	d.logger.Debug("Database closed")

	return nil
}

// GetDatabase returns the held connection, opening one first when needed.
func (d *Database) GetDatabase(ctx context.Context) (*Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		return d.conn, nil
	}

	return d.open(ctx)
}

// IsOpen reports whether a connection is held.
func (d *Database) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.conn != nil
}

// Version returns the schema version reached by the last Open, or 0 when
// closed.
func (d *Database) Version() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.version
}

// Path returns the expanded database file path.
func (d *Database) Path() string {
	return config.ExpandPath(d.cfg.Path)
}

// Engine returns the configured engine dialect.
func (d *Database) Engine() Dialect {
	return d.dialect
}

// Sink returns the sink models created through this handle report to.
func (d *Database) Sink() notify.Sink {
	return d.sink
}

// Registry returns the tables created on open, version table first.
func (d *Database) Registry() Registry {
	return d.runner.tables()
}

// Model returns def bound to the held connection, opening it if needed.
func (d *Database) Model(ctx context.Context, def Definition) (*Model, error) {
	conn, err := d.GetDatabase(ctx)
	if err != nil {
		return nil, err
	}

	return NewModel(conn, def, d.sink)
}

// Migrations returns the configured migration steps in ascending version
// order.
func (d *Database) Migrations() []Migration {
	return d.runner.GetMigrations()
}

// MigrationStatus reports every known migration against the stored version.
func (d *Database) MigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	conn, err := d.GetDatabase(ctx)
	if err != nil {
		return nil, err
	}

	return d.runner.Status(ctx, conn)
}

// DropAll drops and recreates every registered table, leaving the handle
// open.
func (d *Database) DropAll(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	runner := *d.runner
	runner.dropTables = true

	if d.conn == nil {
		if _, err := d.open(ctx); err != nil {
			return err
		}
	}

	version, err := runner.UpdateTables(ctx, d.conn)
	if err != nil {
		return err
	}

	d.version = version

	return nil
}
