package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kyleking/starterdb/internal/config"
	"github.com/kyleking/starterdb/internal/logging"
)

// ExampleModel demonstrates basic usage of the storage layer
func ExampleModel() {
	tempDir, _ := os.MkdirTemp("", "example_test")
	defer os.RemoveAll(tempDir)

	products := Table{
		Name: "products",
		Columns: []Column{
			{Name: "product_id", Type: "INTEGER NOT NULL"},
			{Name: "name", Type: "TEXT NOT NULL"},
		},
	}

	db, err := NewDatabase(config.DatabaseConfig{
		Path:           filepath.Join(tempDir, "example.db"),
		Engine:         "sqlite",
		MaxConnections: 1,
		QueryTimeout:   "30s",
	}, WithRegistry(Registry{products}), WithLogger(logging.Discard()))
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	m, err := db.Model(ctx, products)
	if err != nil {
		log.Fatalf("Failed to bind model: %v", err)
	}

	m.Create(ctx, NewValues("product_id", 10, "name", "Widget"))
	m.Create(ctx, NewValues("product_id", 20, "name", "Gadget"))
	m.Create(ctx, NewValues("product_id", 30, "name", "Gizmo"))

	for _, row := range m.Get(ctx, Where("product_id", Op(">", 10)), &Options{OrderBy: "product_id", Order: "asc"}) {
		productID, _ := row.Get("product_id")
		name, _ := row.Get("name")
		fmt.Printf("%v %v\n", productID, name)
	}

	count, _ := m.Count(ctx, Filter{})
	fmt.Printf("Database contains %d products at version %d\n", count, db.Version())

	// Output:
	// 20 Gadget
	// 30 Gizmo
	// Database contains 3 products at version 0
}
