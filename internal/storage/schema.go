package storage

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/kyleking/starterdb/internal/errors"
)

// IDColumnName is the synthetic primary key every table carries.
const IDColumnName = "id"

// IDColumn is prepended to every declared schema.
var IDColumn = Column{Name: IDColumnName, Type: "INTEGER PRIMARY KEY NOT NULL"}

// Column describes one table column: its identifier and its storage type
// with constraints, e.g. "TEXT NOT NULL".
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Definition is implemented by every entity backed by a table.
type Definition interface {
	TableName() string
	Schema() []Column
}

// Table is a plain Definition.
type Table struct {
	Name    string
	Columns []Column
}

// TableName returns t.Name.
func (t Table) TableName() string { return t.Name }

// Schema returns the declared columns, without the synthetic id.
func (t Table) Schema() []Column { return t.Columns }

// effectiveSchema returns [id] ++ schema after checking the definition is
// complete and its column names are unique.
func effectiveSchema(table string, schema []Column) ([]Column, error) {
	if schema == nil {
		return nil, errors.NewModelConfigError(table, "schema")
	}

	columns := make([]Column, 0, len(schema)+1)
	columns = append(columns, IDColumn)

	seen := map[string]bool{IDColumnName: true}

	for _, column := range schema {
		if column.Name == "" {
			return nil, errors.Newf(errors.ErrTypeConfig, "empty column name on model %q", table)
		}

		if seen[column.Name] {
			return nil, errors.Newf(errors.ErrTypeConfig, "duplicate column %q on model %q", column.Name, table)
		}

		seen[column.Name] = true
		columns = append(columns, column)
	}

	return columns, nil
}

// Values is a column to value mapping that iterates in insertion order.
type Values = orderedmap.OrderedMap[string, any]

// NewValues builds Values from alternating column names and values:
//
//	NewValues("product_id", 7, "name", "Widget")
//
// It panics on an odd argument count or a non-string column name.
func NewValues(kv ...any) *Values {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("storage.NewValues: odd number of arguments (%d)", len(kv)))
	}

	values := orderedmap.New[string, any]()

	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("storage.NewValues: argument %d is %T, want string", i, kv[i]))
		}

		values.Set(key, kv[i+1])
	}

	return values
}
