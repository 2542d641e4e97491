// Package models declares the tables the application stores and typed
// accessors over them.
package models

import (
	"github.com/kyleking/starterdb/internal/storage"
)

// ProductsTable holds products fetched for the signed-in user.
var ProductsTable = storage.Table{
	Name: "products",
	Columns: []storage.Column{
		{Name: "product_id", Type: "INTEGER NOT NULL"},
		{Name: "name", Type: "TEXT NOT NULL"},
	},
}

// KVEntriesTable backs the local key/value store.
var KVEntriesTable = storage.Table{
	Name: "kv_entries",
	Columns: []storage.Column{
		{Name: "entry_key", Type: "TEXT NOT NULL UNIQUE"},
		{Name: "entry_value", Type: "TEXT"},
	},
}

// Registry returns every table the application creates on open, in
// creation order.
func Registry() storage.Registry {
	return storage.Registry{
		storage.VersionTable,
		ProductsTable,
		KVEntriesTable,
	}
}

// Migrations returns the schema steps applied after table creation.
func Migrations() []storage.Migration {
	return nil
}

func asInt64(value any) int64 {
	switch n := value.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asString(value any) string {
	switch s := value.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}
