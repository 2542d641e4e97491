package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/kyleking/starterdb/internal/config"
	"github.com/kyleking/starterdb/internal/errors"
)

func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Usage:       "Display the active configuration",
		Description: `Show the current active configuration including all settings from file, environment variables, and command-line flags.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "raw", Usage: "Print the configuration as YAML"},
			&cli.BoolFlag{Name: "save", Usage: "Write the active configuration to the config file"},
		},
		Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
			if cmd.Bool("save") {
				return saveConfig(ctx, s)
			}

			return runConfig(ctx, s, cmd.Bool("raw"))
		}),
	}
}

func runConfig(ctx context.Context, s *session, raw bool) error {
	cfg := getConfigFromContext(ctx)
	if cfg == nil {
		return errors.NewConfigError("failed to load configuration", "")
	}

	if raw {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}

		s.printf("%s", data)

		return nil
	}

	expanded := *cfg
	expanded.ExpandAllPaths()

	printConfig(s, &expanded)

	return nil
}

func saveConfig(ctx context.Context, s *session) error {
	cfg := getConfigFromContext(ctx)
	if cfg == nil {
		return errors.NewConfigError("failed to load configuration", "")
	}

	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	s.printf("Saved configuration to %s\n", config.ConfigPath())

	return nil
}

func printConfig(s *session, cfg *config.Config) {
	s.printf("====================\n")
	s.printf("Active Configuration:\n")
	s.printf("Config File: %s\n", config.ConfigPath())

	s.printf("\nDatabase:\n")
	s.printf("  Path: %s\n", cfg.Database.Path)
	s.printf("  Engine: %s\n", cfg.Database.Engine)
	s.printf("  Debug: %t\n", cfg.Database.Debug)
	s.printf("  Drop Tables: %t\n", cfg.Database.DropTables)
	s.printf("  Max Connections: %d\n", cfg.Database.MaxConnections)
	s.printf("  Query Timeout: %s\n", cfg.Database.QueryTimeout)

	s.printf("\nLogging:\n")
	s.printf("  Level: %s\n", cfg.Logging.Level)
	s.printf("  Format: %s\n", cfg.Logging.Format)
	s.printf("  Output: %s\n", cfg.Logging.Output)

	if cfg.Logging.Output == "file" {
		s.printf("  File: %s\n", cfg.Logging.File)
	}

	s.printf("  Add Source: %t\n", cfg.Logging.AddSource)

	s.printf("\nNotify:\n")
	s.printf("  Output: %s\n", cfg.Notify.Output)
	s.printf("  Color: %t\n", cfg.Notify.Color)
}
