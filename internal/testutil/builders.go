package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/kyleking/starterdb/internal/models"
)

// ProductOption is a functional option for configuring test products
type ProductOption func(*models.Product)

// WithName sets the product name
func WithName(name string) ProductOption {
	return func(p *models.Product) {
		p.Name = name
	}
}

// WithProductID sets the upstream product id
func WithProductID(id int64) ProductOption {
	return func(p *models.Product) {
		p.ProductID = id
	}
}

// NewTestProduct creates a test product with sensible defaults
// and applies any provided options.
func NewTestProduct(opts ...ProductOption) models.Product {
	product := models.Product{
		ProductID: TestProductID,
		Name:      TestProductName,
	}

	for _, opt := range opts {
		opt(&product)
	}

	return product
}

// NewTestProducts creates n products with distinct ids and names.
func NewTestProducts(n int) []models.Product {
	products := make([]models.Product, 0, n)
	for i := range n {
		products = append(products, NewTestProduct(
			WithProductID(TestProductID+int64(i)),
			WithName(fmt.Sprintf("%s %d", TestProductName, i+1)),
		))
	}

	return products
}

// SeedProducts stores products and returns them with their row ids set.
func SeedProducts(t *testing.T, repo *models.Products, products []models.Product) []models.Product {
	t.Helper()

	ctx := context.Background()
	stored := make([]models.Product, 0, len(products))

	for _, p := range products {
		id, ok := repo.Create(ctx, p.ProductID, p.Name)
		if !ok {
			t.Fatalf("failed to seed product %q", p.Name)
		}

		p.ID = id
		stored = append(stored, p)
	}

	return stored
}
