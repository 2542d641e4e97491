package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/starterdb/internal/storage"
)

func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:        "stats",
		Usage:       "Display database statistics",
		Description: `Show statistics about the local database including row counts per table, schema version, and database size.`,
		Action:      withSession(runStats),
	}
}

// TableStats is the row count of one table.
type TableStats struct {
	Table string
	Rows  int64
	OK    bool
}

func runStats(ctx context.Context, _ *cli.Command, s *session) error {
	conn, err := s.db.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	tables, err := collectTableStats(ctx, conn, s.db.Registry())
	if err != nil {
		return err
	}

	s.printf("Database Statistics\n")
	s.printf("==================\n\n")

	s.printf("Path: %s\n", s.db.Path())
	s.printf("Engine: %s\n", s.db.Engine().Name())
	s.printf("Schema Version: %d\n", s.db.Version())

	if info, err := os.Stat(s.db.Path()); err == nil {
		s.printf("Database Size: %.2f MB\n", float64(info.Size())/(1024*1024))
	}

	s.printf("\nTables:\n")

	for _, t := range tables {
		if !t.OK {
			s.printf("  %-15s %s\n", t.Table, notAvailable)
			continue
		}

		s.printf("  %-15s %6d rows\n", t.Table, t.Rows)
	}

	return nil
}

const notAvailable = "N/A"

func collectTableStats(ctx context.Context, exec storage.Executor, registry storage.Registry) ([]TableStats, error) {
	stats := make([]TableStats, 0, len(registry))

	for _, def := range registry {
		m, err := storage.NewModel(exec, def, nil)
		if err != nil {
			return nil, err
		}

		rows, ok := m.Count(ctx, storage.Filter{})
		stats = append(stats, TableStats{Table: def.TableName(), Rows: rows, OK: ok})
	}

	return stats, nil
}
