// Package testutil provides common constants and utilities for tests
package testutil

const (
	// TestSmallProductCount is a small number of test products
	TestSmallProductCount = 3

	// TestWorkerCount is the number of goroutines used by concurrency tests
	TestWorkerCount = 20
)

// Common test strings
const (
	// TestProductName is a default product name
	TestProductName = "Widget"

	// TestProductID is a default upstream product id
	TestProductID int64 = 100

	// TestKey is a default key/value store key
	TestKey = "session"
)
