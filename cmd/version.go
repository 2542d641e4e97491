package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:        "version",
		Usage:       "Show build and schema versions",
		Description: `Print the build information and the schema version stored in the database, with the status of every known migration.`,
		Action:      withSession(runVersion),
	}
}

func runVersion(ctx context.Context, _ *cli.Command, s *session) error {
	s.printf("starterdb %s (commit: %s, built: %s)\n", version, commit, date)

	if _, err := s.db.GetDatabase(ctx); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	s.printf("Schema version: %d\n", s.db.Version())

	if len(s.db.Migrations()) == 0 {
		s.printf("Migrations: none defined\n")
		return nil
	}

	status, err := s.db.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	s.printf("Migrations:\n")

	for _, m := range status {
		state := "pending"
		if m.Applied {
			state = "applied"
		}

		s.printf("  %4d  %-8s %s\n", m.Version, state, m.Description)
	}

	return nil
}
