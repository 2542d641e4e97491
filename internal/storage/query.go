package storage

import (
	"slices"
	"strings"

	"github.com/kyleking/starterdb/internal/errors"
)

// Clause is a fragment of SQL text together with the values bound to its
// placeholders, in placeholder order.
type Clause struct {
	SQL  string
	Args []any
}

// Comparison is a where-clause value compared with an explicit operator.
type Comparison struct {
	Operator string
	Value    any
}

// Op returns a Comparison, e.g. Op("!=", 2) or Op("like", "wid%").
func Op(operator string, value any) Comparison {
	return Comparison{Operator: operator, Value: value}
}

// Filter selects rows. The zero Filter selects every row.
type Filter struct {
	id     any
	byID   bool
	fields *Values
}

// ByID matches the row whose id equals id. ByID(nil) binds NULL and so
// matches no row; use the zero Filter to select every row.
func ByID(id any) Filter {
	return Filter{id: id, byID: true}
}

// Match matches rows where every entry of fields holds. An entry's value is
// either a literal (compared with =) or a Comparison.
//
// Column names are written into the SQL text as given; only pass names from
// model definitions, never external input.
func Match(fields *Values) Filter {
	return Filter{fields: fields}
}

// Where is shorthand for Match(NewValues(kv...)).
func Where(kv ...any) Filter {
	return Match(NewValues(kv...))
}

// IsZero reports whether the filter selects every row.
func (f Filter) IsZero() bool {
	return !f.byID && (f.fields == nil || f.fields.Len() == 0)
}

// Options shape a result set. Zero Limit and Offset mean "not set".
type Options struct {
	GroupBy []string
	OrderBy string
	// Order is ASC or DESC, case-insensitive. Empty means DESC when OrderBy
	// is set; anything unrecognized means ASC.
	Order  string
	Limit  int
	Offset int
}

var allowedOperators = map[string]bool{
	"=":        true,
	"!=":       true,
	"<>":       true,
	"<":        true,
	"<=":       true,
	">":        true,
	">=":       true,
	"LIKE":     true,
	"NOT LIKE": true,
	"GLOB":     true,
	"IS":       true,
	"IS NOT":   true,
}

func normalizeOperator(op string) (string, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(op), " "))
	if !allowedOperators[normalized] {
		return "", errors.Newf(errors.ErrTypeValidation, "invalid comparison operator %q", op)
	}

	return normalized, nil
}

// BuildWhereClause turns filter into " WHERE ..." with one bound value per
// condition. Conditions are joined with AND in the filter's order. Values
// never appear in the SQL text; operators must be in the allow-list.
func BuildWhereClause(filter Filter) (Clause, error) {
	if filter.byID {
		return Clause{SQL: " WHERE " + IDColumnName + " = ?", Args: []any{filter.id}}, nil
	}

	if filter.fields == nil || filter.fields.Len() == 0 {
		return Clause{}, nil
	}

	var b strings.Builder

	args := make([]any, 0, filter.fields.Len())

	for pair := filter.fields.Oldest(); pair != nil; pair = pair.Next() {
		op, value := "=", pair.Value

		if cmp, ok := pair.Value.(Comparison); ok {
			normalized, err := normalizeOperator(cmp.Operator)
			if err != nil {
				return Clause{}, err
			}

			op, value = normalized, cmp.Value
		}

		if len(args) == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}

		b.WriteString(pair.Key)
		b.WriteString(" ")
		b.WriteString(op)
		b.WriteString(" ?")

		args = append(args, value)
	}

	return Clause{SQL: b.String(), Args: args}, nil
}

// noLimit is bound as LIMIT when an offset is given alone on an engine that
// cannot parse OFFSET without LIMIT.
const noLimit = -1

// BuildOptionsSuffix renders GROUP BY, ORDER BY, LIMIT and OFFSET in that
// order for the default SQLite dialect. Identifiers cannot be bound, so
// GROUP BY and ORDER BY are only emitted when every named column is in
// known; otherwise that clause is dropped without error. LIMIT and OFFSET
// are bound.
func BuildOptionsSuffix(opts *Options, known []string) Clause {
	return buildOptionsSuffix(SQLite, opts, known)
}

func buildOptionsSuffix(dialect Dialect, opts *Options, known []string) Clause {
	if opts == nil {
		return Clause{}
	}

	var (
		b    strings.Builder
		args []any
	)

	if len(opts.GroupBy) > 0 && allKnown(opts.GroupBy, known) {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(opts.GroupBy, ", "))
	}

	if opts.OrderBy != "" && slices.Contains(known, opts.OrderBy) {
		b.WriteString(" ORDER BY ")
		b.WriteString(opts.OrderBy)
		b.WriteString(" ")
		b.WriteString(orderDirection(opts.Order))
	}

	switch {
	case opts.Limit > 0:
		b.WriteString(" LIMIT ?")

		args = append(args, opts.Limit)
	case opts.Offset > 0 && dialect.OffsetRequiresLimit():
		b.WriteString(" LIMIT ?")

		args = append(args, noLimit)
	}

	if opts.Offset > 0 {
		b.WriteString(" OFFSET ?")

		args = append(args, opts.Offset)
	}

	return Clause{SQL: b.String(), Args: args}
}

func orderDirection(order string) string {
	switch strings.ToUpper(strings.TrimSpace(order)) {
	case "", "DESC":
		return "DESC"
	default:
		return "ASC"
	}
}

func allKnown(columns, known []string) bool {
	for _, column := range columns {
		if !slices.Contains(known, column) {
			return false
		}
	}

	return true
}
