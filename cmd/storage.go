package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/starterdb/internal/config"
	"github.com/kyleking/starterdb/internal/errors"
	"github.com/kyleking/starterdb/internal/logging"
	"github.com/kyleking/starterdb/internal/models"
	"github.com/kyleking/starterdb/internal/notify"
	"github.com/kyleking/starterdb/internal/storage"
)

type contextKey string

const configKey contextKey = "config"

// session carries everything a command needs. The database is opened
// lazily on first use.
type session struct {
	cfg    *config.Config
	logger *logging.Logger
	sink   notify.Sink
	db     *storage.Database
	out    io.Writer
}

type sessionAction func(ctx context.Context, cmd *cli.Command, s *session) error

// withSession loads the configuration, builds the logger, sink and database
// handle, runs fn and closes whatever fn opened.
func withSession(fn sessionAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		s, err := newSession(cfg, writerFor(cmd))
		if err != nil {
			return err
		}
		defer s.close()

		return fn(context.WithValue(ctx, configKey, cfg), cmd, s)
	}
}

func newSession(cfg *config.Config, out io.Writer) (*session, error) {
	logger, err := logging.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeConfig, "failed to initialize logger")
	}

	sink, err := notify.FromConfig(cfg.Notify, logger)
	if err != nil {
		return nil, errors.NewConfigError(err.Error(), "notify.output")
	}

	db, err := initializeStorage(cfg, logger, sink)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, sink: sink, db: db, out: out}, nil
}

func (s *session) close() {
	if s.db.IsOpen() {
		if err := s.db.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close database")
		}
	}

	_ = s.logger.Close()
}

func (s *session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

// initializeStorage creates the database handle for the application tables.
func initializeStorage(cfg *config.Config, logger *logging.Logger, sink notify.Sink) (*storage.Database, error) {
	db, err := storage.NewDatabase(cfg.Database,
		storage.WithRegistry(models.Registry()),
		storage.WithMigrations(models.Migrations()...),
		storage.WithSink(sink),
		storage.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return db, nil
}

// loadConfig reads the configuration and applies the global flags that
// were set on the command line.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	overrides := map[string]interface{}{}

	for _, name := range []string{"db-path", "engine", "log-level"} {
		if cmd.IsSet(name) {
			overrides[name] = cmd.String(name)
		}
	}

	for _, name := range []string{"debug", "drop-tables"} {
		if cmd.IsSet(name) {
			overrides[name] = cmd.Bool(name)
		}
	}

	cfg, err := config.LoadConfigWithOverrides(overrides)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}

	return nil
}

func writerFor(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}

	return os.Stdout
}
