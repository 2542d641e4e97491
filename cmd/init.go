package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create the database and bring its tables up to date",
		Description: `Open the database file, creating it when missing, create every registered table
and apply pending migrations. Pass --drop-tables to start from empty tables.`,
		Action: withSession(runInit),
	}
}

func runInit(ctx context.Context, _ *cli.Command, s *session) error {
	stop := startSpinner(s, " Initializing database...")

	_, err := s.db.Open(ctx)

	stop()

	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	s.printf("Database ready: %s\n", s.db.Path())
	s.printf("Engine: %s\n", s.db.Engine().Name())
	s.printf("Tables: %d\n", len(s.db.Registry()))
	s.printf("Schema version: %d\n", s.db.Version())

	return nil
}

// startSpinner shows a spinner while the returned function has not been
// called. Nothing is drawn unless the output is a terminal.
func startSpinner(s *session, suffix string) func() {
	f, ok := s.out.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return func() {}
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	sp.Suffix = suffix
	sp.Start()

	return sp.Stop
}
