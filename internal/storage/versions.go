package storage

import (
	"context"

	"github.com/kyleking/starterdb/internal/notify"
)

// VersionTable records the schema version. The current version is the
// largest stored value, or 0 when the table is empty.
var VersionTable = Table{
	Name: "version",
	Columns: []Column{
		{Name: "version", Type: "INTEGER"},
	},
}

// Versions reads and records schema versions.
type Versions struct {
	model *Model
}

// NewVersions binds the version table to exec. Failures are only logged:
// a version that cannot be read counts as 0 and is never shown to the
// operator.
func NewVersions(exec Executor) (*Versions, error) {
	m, err := NewModel(exec, VersionTable, notify.Discard)
	if err != nil {
		return nil, err
	}

	return &Versions{model: m}, nil
}

// GetLatest returns the current schema version. A failed read counts as 0.
func (v *Versions) GetLatest(ctx context.Context) int {
	row := v.model.GetOne(ctx, Filter{}, &Options{OrderBy: "version", Order: "DESC"})
	if row == nil {
		return 0
	}

	value, _ := row.Get("version")

	return toInt(value)
}

// Record stores version as applied.
func (v *Versions) Record(ctx context.Context, version int) bool {
	_, ok := v.model.Create(ctx, NewValues("version", version))
	return ok
}

func toInt(value any) int {
	switch n := value.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
