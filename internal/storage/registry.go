package storage

import (
	"github.com/kyleking/starterdb/internal/notify"
)

// Registry is the ordered list of every table definition known to the
// application. Tables are created in this order and dropped in reverse.
type Registry []Definition

// Names returns the table names in registry order.
func (r Registry) Names() []string {
	names := make([]string, len(r))
	for i, def := range r {
		names[i] = def.TableName()
	}

	return names
}

// Models binds every definition to exec. The first invalid definition
// aborts with its configuration error.
func (r Registry) Models(exec Executor, sink notify.Sink) ([]*Model, error) {
	models := make([]*Model, 0, len(r))

	for _, def := range r {
		m, err := NewModel(exec, def, sink)
		if err != nil {
			return nil, err
		}

		models = append(models, m)
	}

	return models, nil
}

// Contains reports whether a definition for table is registered.
func (r Registry) Contains(table string) bool {
	for _, def := range r {
		if def.TableName() == table {
			return true
		}
	}

	return false
}
