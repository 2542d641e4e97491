package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

func DropCommand() *cli.Command {
	return &cli.Command{
		Name:        "drop",
		Usage:       "Drop and recreate every table",
		Description: `Remove all stored data by dropping and recreating every table. This action requires confirmation.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Skip confirmation prompt"},
		},
		Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
			reader := cmd.Root().Reader
			if reader == nil {
				reader = os.Stdin
			}

			return runDrop(ctx, s, cmd.Bool("force"), reader)
		}),
	}
}

func runDrop(ctx context.Context, s *session, force bool, in io.Reader) error {
	conn, err := s.db.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	tables, err := collectTableStats(ctx, conn, s.db.Registry())
	if err != nil {
		return err
	}

	var total int64
	for _, t := range tables {
		total += t.Rows
	}

	s.printf("This will delete:\n")

	for _, t := range tables {
		s.printf("  • %d rows from %s\n", t.Rows, t.Table)
	}

	if !force {
		s.printf("\nAre you sure you want to drop all tables? This action cannot be undone.\n")
		s.printf("Type 'yes' to confirm: ")

		response, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			s.printf("Operation cancelled.\n")
			return nil
		}
	}

	if err := s.db.DropAll(ctx); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}

	s.printf("Dropped %d tables (%d rows).\n", len(tables), total)

	return nil
}
