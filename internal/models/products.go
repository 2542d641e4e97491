package models

import (
	"context"

	"github.com/kyleking/starterdb/internal/logging"
	"github.com/kyleking/starterdb/internal/notify"
	"github.com/kyleking/starterdb/internal/storage"
)

// Product is one row of the products table.
type Product struct {
	ID        int64  `json:"id"         yaml:"id"`
	ProductID int64  `json:"product_id" yaml:"product_id"`
	Name      string `json:"name"       yaml:"name"`
}

// Products is the typed accessor for ProductsTable.
type Products struct {
	model  *storage.Model
	logger *logging.Logger
}

// NewProducts binds the products table to exec.
func NewProducts(exec storage.Executor, sink notify.Sink) (*Products, error) {
	m, err := storage.NewModel(exec, ProductsTable, sink)
	if err != nil {
		return nil, err
	}

	logger := logging.Discard()
	if exec.Logger() != nil {
		logger = exec.Logger()
	}

	return &Products{model: m, logger: logger.WithField("model", "products")}, nil
}

// Model exposes the generic accessor for queries the typed API lacks.
func (p *Products) Model() *storage.Model { return p.model }

// Create stores a product and returns its row id.
func (p *Products) Create(ctx context.Context, productID int64, name string) (int64, bool) {
	id, ok := p.model.Create(ctx, storage.NewValues("product_id", productID, "name", name))
	if ok {
		p.logger.WithFields(map[string]interface{}{
			"name": name,
			"id":   id,
		}).Debug("Created product")
	}

	return id, ok
}

// GetAll returns every product, oldest first.
func (p *Products) GetAll(ctx context.Context) []Product {
	p.logger.Debug("Getting all products")

	return p.List(ctx, storage.Filter{}, &storage.Options{OrderBy: storage.IDColumnName, Order: "ASC"})
}

// List returns the products selected by filter and shaped by opts.
func (p *Products) List(ctx context.Context, filter storage.Filter, opts *storage.Options) []Product {
	return toProducts(p.model.Get(ctx, filter, opts))
}

// FindByProductID returns the products carrying productID.
func (p *Products) FindByProductID(ctx context.Context, productID int64) []Product {
	return p.List(ctx, storage.Where("product_id", productID), &storage.Options{OrderBy: storage.IDColumnName, Order: "ASC"})
}

// Get returns the product with row id id.
func (p *Products) Get(ctx context.Context, id int64) (Product, bool) {
	row := p.model.GetOne(ctx, storage.ByID(id), nil)
	if row == nil {
		return Product{}, false
	}

	return toProduct(row), true
}

// Delete removes the product with row id id. It returns false when
// nothing was removed.
func (p *Products) Delete(ctx context.Context, id int64) bool {
	deleted, ok := p.model.Delete(ctx, storage.ByID(id), nil)
	return ok && deleted == id
}

// Count returns the number of stored products.
func (p *Products) Count(ctx context.Context) int64 {
	count, _ := p.model.Count(ctx, storage.Filter{})
	return count
}

func toProducts(rows []*storage.Values) []Product {
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, toProduct(row))
	}

	return products
}

func toProduct(row *storage.Values) Product {
	id, _ := row.Get(storage.IDColumnName)
	productID, _ := row.Get("product_id")
	name, _ := row.Get("name")

	return Product{
		ID:        asInt64(id),
		ProductID: asInt64(productID),
		Name:      asString(name),
	}
}
