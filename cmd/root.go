package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetBuildInfo records the values injected by the linker.
func SetBuildInfo(v, c, d string) {
	version, commit, date = v, c, d
}

// NewApp returns the root command with every subcommand attached.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:  "starterdb",
		Usage: "Manage the local application database",
		Description: `starterdb creates and migrates the local database file used by the application,
and offers small commands to inspect and edit the products and key/value tables.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db-path",
				Usage: "Path to the database file",
			},
			&cli.StringFlag{
				Name:  "engine",
				Usage: "Database engine (sqlite, duckdb)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log every SQL statement",
			},
			&cli.BoolFlag{
				Name:  "drop-tables",
				Usage: "Drop and recreate every table when the database is opened",
			},
		},
		Commands: []*cli.Command{
			InitCommand(),
			VersionCommand(),
			ProductsCommand(),
			KVCommand(),
			StatsCommand(),
			ConfigCommand(),
			DropCommand(),
		},
	}
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
