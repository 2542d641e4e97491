package models_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/starterdb/internal/models"
	"github.com/kyleking/starterdb/internal/storage"
	"github.com/kyleking/starterdb/internal/testutil"
)

func newProducts(t *testing.T) (*models.Products, *storage.Database) {
	t.Helper()

	db, conn, recorder := testutil.OpenTestDatabase(t)

	products, err := models.NewProducts(conn, recorder)
	require.NoError(t, err)

	return products, db
}

func TestRegistry(t *testing.T) {
	registry := models.Registry()

	assert.Equal(t, []string{"version", "products", "kv_entries"}, registry.Names())

	ms, err := registry.Models(nil, nil)
	require.NoError(t, err)
	assert.Len(t, ms, 3)
}

func TestProducts_CreateAndGetAll(t *testing.T) {
	products, _ := newProducts(t)
	ctx := context.Background()

	assert.Empty(t, products.GetAll(ctx))

	seeded := testutil.SeedProducts(t, products, testutil.NewTestProducts(testutil.TestSmallProductCount))

	all := products.GetAll(ctx)
	assert.Equal(t, seeded, all)
}

func TestProducts_Get(t *testing.T) {
	products, _ := newProducts(t)
	ctx := context.Background()

	seeded := testutil.SeedProducts(t, products, []models.Product{testutil.NewTestProduct()})

	got, ok := products.Get(ctx, seeded[0].ID)
	require.True(t, ok)
	assert.Equal(t, testutil.TestProductName, got.Name)
	assert.Equal(t, testutil.TestProductID, got.ProductID)

	_, ok = products.Get(ctx, seeded[0].ID+100)
	assert.False(t, ok)
}

func TestProducts_FindByProductID(t *testing.T) {
	products, _ := newProducts(t)
	ctx := context.Background()

	testutil.SeedProducts(t, products, []models.Product{
		testutil.NewTestProduct(testutil.WithProductID(1), testutil.WithName("a")),
		testutil.NewTestProduct(testutil.WithProductID(2), testutil.WithName("b")),
		testutil.NewTestProduct(testutil.WithProductID(1), testutil.WithName("c")),
	})

	found := products.FindByProductID(ctx, 1)
	require.Len(t, found, 2)
	assert.Equal(t, "a", found[0].Name)
	assert.Equal(t, "c", found[1].Name)
}

func TestProducts_DeleteAndCount(t *testing.T) {
	products, _ := newProducts(t)
	ctx := context.Background()

	seeded := testutil.SeedProducts(t, products, testutil.NewTestProducts(testutil.TestSmallProductCount))

	assert.Equal(t, int64(3), products.Count(ctx))
	assert.True(t, products.Delete(ctx, seeded[1].ID))
	assert.False(t, products.Delete(ctx, seeded[1].ID), "already removed")
	assert.Equal(t, int64(2), products.Count(ctx))
}

func TestProducts_RejectsMissingName(t *testing.T) {
	_, conn, recorder := testutil.OpenTestDatabase(t)

	products, err := models.NewProducts(conn, recorder)
	require.NoError(t, err)

	_, ok := products.Model().Create(context.Background(), storage.NewValues("product_id", 1))
	assert.False(t, ok)
	assert.Equal(t, 1, recorder.Count())
}

func TestProducts_ConcurrentCreate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}

	products, _ := newProducts(t)
	ctx := context.Background()

	testutil.RunConcurrent(t, testutil.TestWorkerCount, func(workerID int) {
		products.Create(ctx, int64(workerID), testutil.TestProductName)
	})

	assert.Equal(t, int64(testutil.TestWorkerCount), products.Count(ctx))
}
