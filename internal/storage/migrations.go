package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kyleking/starterdb/internal/logging"
	"github.com/kyleking/starterdb/internal/notify"
)

// Migration is one versioned schema step. Up runs inside its own
// transaction, which also records Version once Up succeeds.
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, tx *Tx) error
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
	Applied     bool   `json:"applied"`
}

// Option configures a MigrationRunner or a Database.
type Option func(*settings)

type settings struct {
	registry   Registry
	migrations []Migration
	dropTables bool
	sink       notify.Sink
	logger     *logging.Logger
}

func newSettings(opts []Option) settings {
	s := settings{sink: notify.Discard}

	for _, opt := range opts {
		opt(&s)
	}

	if s.logger == nil {
		s.logger = logging.GetLogger()
	}

	return s
}

// WithRegistry sets the tables created on open.
func WithRegistry(registry Registry) Option {
	return func(s *settings) { s.registry = registry }
}

// WithMigrations sets the migration steps applied after table creation.
func WithMigrations(migrations ...Migration) Option {
	return func(s *settings) { s.migrations = append(s.migrations, migrations...) }
}

// WithDropTables drops every registered table before creating it again.
func WithDropTables(drop bool) Option {
	return func(s *settings) { s.dropTables = drop }
}

// WithSink sets where model failures are reported.
func WithSink(sink notify.Sink) Option {
	return func(s *settings) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// MigrationRunner creates the registered tables and applies pending
// migrations.
type MigrationRunner struct {
	registry   Registry
	migrations []Migration
	dropTables bool
	sink       notify.Sink
	logger     *logging.Logger
}

// NewMigrationRunner creates a runner for registry.
func NewMigrationRunner(registry Registry, opts ...Option) *MigrationRunner {
	s := newSettings(append([]Option{WithRegistry(registry)}, opts...))
	return newMigrationRunner(s)
}

func newMigrationRunner(s settings) *MigrationRunner {
	migrations := make([]Migration, len(s.migrations))
	copy(migrations, s.migrations)

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return &MigrationRunner{
		registry:   s.registry,
		migrations: migrations,
		dropTables: s.dropTables,
		sink:       s.sink,
		logger:     s.logger,
	}
}

// GetMigrations returns the migration steps in ascending version order.
func (r *MigrationRunner) GetMigrations() []Migration {
	return r.migrations
}

// tables returns the version table followed by the registry, without
// duplicates.
func (r *MigrationRunner) tables() Registry {
	tables := Registry{VersionTable}

	for _, def := range r.registry {
		if tables.Contains(def.TableName()) {
			continue
		}

		tables = append(tables, def)
	}

	return tables
}

// UpdateTables creates every registered table in one transaction, dropping
// them first when configured to. It then reads the stored version and
// applies every migration newer than it. It returns the resulting version.
func (r *MigrationRunner) UpdateTables(ctx context.Context, conn *Conn) (int, error) {
	start := time.Now()

	models, err := r.tables().Models(conn, r.sink)
	if err != nil {
		return 0, err
	}

	err = conn.Transaction(ctx, func(tx *Tx) error {
		if r.dropTables {
			r.logger.Warn("Dropping all tables")

			for i := len(models) - 1; i >= 0; i-- {
				if err := models[i].DropTable(ctx, tx); err != nil {
					return err
				}
			}
		}

		for _, m := range models {
			if err := m.CreateTable(ctx, tx); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create tables: %w", err)
	}

	versions, err := NewVersions(conn)
	if err != nil {
		return 0, err
	}

	version := versions.GetLatest(ctx)

	for _, migration := range r.migrations {
		if migration.Version <= version {
			continue
		}

		r.logger.WithFields(map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("Applying migration")

		err := r.logger.Operation(fmt.Sprintf("migration %d", migration.Version), func() error {
			return r.apply(ctx, conn, migration)
		})
		if err != nil {
			return version, fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}

		version = migration.Version
	}

	r.logger.WithFields(map[string]interface{}{
		"tables":   len(models),
		"version":  version,
		"duration": time.Since(start).String(),
	}).Debug("Tables up to date")

	return version, nil
}

func (r *MigrationRunner) apply(ctx context.Context, conn *Conn, migration Migration) error {
	return conn.Transaction(ctx, func(tx *Tx) error {
		if migration.Up != nil {
			if err := migration.Up(ctx, tx); err != nil {
				return err
			}
		}

		versions, err := NewVersions(tx)
		if err != nil {
			return err
		}

		if !versions.Record(ctx, migration.Version) {
			return fmt.Errorf("failed to record migration %d", migration.Version)
		}

		return nil
	})
}

// Status returns every known migration and whether the stored version
// covers it.
func (r *MigrationRunner) Status(ctx context.Context, conn *Conn) ([]MigrationStatus, error) {
	versions, err := NewVersions(conn)
	if err != nil {
		return nil, err
	}

	current := versions.GetLatest(ctx)
	migrations := r.GetMigrations()

	status := make([]MigrationStatus, 0, len(migrations))
	for _, migration := range migrations {
		status = append(status, MigrationStatus{
			Version:     migration.Version,
			Description: migration.Description,
			Applied:     migration.Version <= current,
		})
	}

	return status, nil
}
