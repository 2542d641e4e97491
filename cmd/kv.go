package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/kyleking/starterdb/internal/kvstore"
)

func KVCommand() *cli.Command {
	return &cli.Command{
		Name:  "kv",
		Usage: "Read and write the local key/value store",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store a value under a key",
				ArgsUsage: " <key> <value>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					args := cmd.Args()
					if args.Len() != 2 {
						return fmt.Errorf("expected exactly 2 arguments, got %d", args.Len())
					}

					store, err := openKVStore(ctx, s)
					if err != nil {
						return err
					}

					if !store.Save(ctx, args.Get(0), args.Get(1)) {
						return fmt.Errorf("value was not stored")
					}

					s.printf("Saved %s\n", args.Get(0))

					return nil
				}),
			},
			{
				Name:      "get",
				Usage:     "Print the value stored under a key",
				ArgsUsage: " <key>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly 1 argument, got %d", cmd.Args().Len())
					}

					store, err := openKVStore(ctx, s)
					if err != nil {
						return err
					}

					value, found := store.Get(ctx, cmd.Args().First())
					if !found {
						return fmt.Errorf("key %q not found", cmd.Args().First())
					}

					s.printf("%s\n", value)

					return nil
				}),
			},
			{
				Name:      "rm",
				Usage:     "Remove a key",
				ArgsUsage: " <key>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly 1 argument, got %d", cmd.Args().Len())
					}

					store, err := openKVStore(ctx, s)
					if err != nil {
						return err
					}

					if !store.Remove(ctx, cmd.Args().First()) {
						return fmt.Errorf("key was not removed")
					}

					s.printf("Removed %s\n", cmd.Args().First())

					return nil
				}),
			},
			{
				Name:  "list",
				Usage: "List stored keys",
				Action: withSession(func(ctx context.Context, _ *cli.Command, s *session) error {
					store, err := openKVStore(ctx, s)
					if err != nil {
						return err
					}

					for _, key := range store.Keys(ctx) {
						s.printf("%s\n", key)
					}

					return nil
				}),
			},
		},
	}
}

func openKVStore(ctx context.Context, s *session) (*kvstore.Store, error) {
	conn, err := s.db.GetDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return kvstore.New(conn, s.sink)
}
