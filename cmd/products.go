package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/kyleking/starterdb/internal/models"
	"github.com/kyleking/starterdb/internal/storage"
)

func ProductsCommand() *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "Manage stored products",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Store a product",
				ArgsUsage: " <product-id> <name>",
				Action:    withSession(runProductsAdd),
			},
			{
				Name:  "list",
				Usage: "List stored products",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of products to show"},
					&cli.IntFlag{Name: "offset", Usage: "Number of products to skip"},
					&cli.StringFlag{Name: "sort", Value: "id", Usage: "Column to sort by (id, product_id, name)"},
					&cli.StringFlag{Name: "order", Value: "asc", Usage: "Sort direction (asc, desc)"},
					&cli.StringFlag{Name: "name", Usage: "Only show products whose name matches this LIKE pattern"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "table", Usage: "Output format (table, json)"},
				},
				Action: withSession(runProductsList),
			},
			{
				Name:      "delete",
				Usage:     "Delete a product by row id",
				ArgsUsage: " <id>",
				Action:    withSession(runProductsDelete),
			},
		},
	}
}

func runProductsAdd(ctx context.Context, cmd *cli.Command, s *session) error {
	args := cmd.Args()
	if args.Len() != 2 {
		return fmt.Errorf("expected exactly 2 arguments, got %d", args.Len())
	}

	productID, err := strconv.ParseInt(args.Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q: %w", args.Get(0), err)
	}

	products, err := openProducts(ctx, s)
	if err != nil {
		return err
	}

	id, ok := products.Create(ctx, productID, args.Get(1))
	if !ok {
		return fmt.Errorf("product was not stored")
	}

	s.printf("Created product %d (%s)\n", id, args.Get(1))

	return nil
}

func runProductsList(ctx context.Context, cmd *cli.Command, s *session) error {
	products, err := openProducts(ctx, s)
	if err != nil {
		return err
	}

	filter := storage.Filter{}
	if pattern := cmd.String("name"); pattern != "" {
		filter = storage.Where("name", storage.Op("LIKE", pattern))
	}

	opts := &storage.Options{
		OrderBy: cmd.String("sort"),
		Order:   cmd.String("order"),
		Limit:   int(cmd.Int("limit")),
		Offset:  int(cmd.Int("offset")),
	}

	if !products.Model().ColumnExists(opts.OrderBy) {
		return fmt.Errorf("unknown sort column %q", opts.OrderBy)
	}

	return printProducts(s, products.List(ctx, filter, opts), cmd.String("format"))
}

func printProducts(s *session, list []models.Product, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal products: %w", err)
		}

		s.printf("%s\n", data)
	case "table", "":
		if len(list) == 0 {
			s.printf("No products stored.\n")
			return nil
		}

		s.printf("%-6s %-12s %s\n", "ID", "PRODUCT ID", "NAME")

		for _, p := range list {
			s.printf("%-6d %-12d %s\n", p.ID, p.ProductID, p.Name)
		}
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	return nil
}

func runProductsDelete(ctx context.Context, cmd *cli.Command, s *session) error {
	args := cmd.Args()
	if args.Len() != 1 {
		return fmt.Errorf("expected exactly 1 argument, got %d", args.Len())
	}

	id, err := strconv.ParseInt(args.First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args.First(), err)
	}

	products, err := openProducts(ctx, s)
	if err != nil {
		return err
	}

	if !products.Delete(ctx, id) {
		return fmt.Errorf("product %d not found", id)
	}

	s.printf("Deleted product %d\n", id)

	return nil
}

func openProducts(ctx context.Context, s *session) (*models.Products, error) {
	conn, err := s.db.GetDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return models.NewProducts(conn, s.sink)
}
