package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/kyleking/starterdb/internal/errors"
	"github.com/kyleking/starterdb/internal/logging"
	"github.com/kyleking/starterdb/internal/notify"
)

// Messages shown to the operator when an operation fails. They are
// deliberately generic; the details go to the log.
const (
	msgCreateFailed = "Something went wrong saving to the database."
	msgGetFailed    = "Something went wrong reading from the database."
	msgDeleteFailed = "Something went wrong deleting from the database."
	msgCountFailed  = "Something went wrong counting database records."
)

// Model is a handle on one table. It borrows its Executor and is cheap to
// create; build one per use site.
//
// Create, Get, GetOne, Delete and Count never return engine errors. A failure
// is logged, reported once to the sink, and turned into an empty result, so
// callers cannot tell "no rows" from "query failed".
type Model struct {
	table  string
	schema []Column
	exec   Executor
	sink   notify.Sink
	logger *logging.Logger
}

// NewModel binds def to exec. A definition without a table name or schema
// is a programming error and yields an ErrTypeConfig error. A nil sink
// discards reports.
func NewModel(exec Executor, def Definition, sink notify.Sink) (*Model, error) {
	m := &Model{
		table:  def.TableName(),
		schema: def.Schema(),
		exec:   exec,
		sink:   sink,
	}

	if m.sink == nil {
		m.sink = notify.Discard
	}

	if exec != nil && exec.Logger() != nil {
		m.logger = exec.Logger().WithField("table", m.table)
	} else {
		m.logger = logging.Discard()
	}

	if m.table == "" {
		return nil, errors.NewModelConfigError(fmt.Sprintf("%T", def), "table")
	}

	if _, err := m.EffectiveSchema(); err != nil {
		return nil, err
	}

	return m, nil
}

// Table returns the table name.
func (m *Model) Table() string { return m.table }

// EffectiveSchema returns the declared schema prefixed with the id column.
func (m *Model) EffectiveSchema() ([]Column, error) {
	return effectiveSchema(m.table, m.schema)
}

// ColumnNames returns the names of the effective schema, id first.
func (m *Model) ColumnNames() []string {
	columns, err := m.EffectiveSchema()
	if err != nil {
		return nil
	}

	names := make([]string, len(columns))
	for i, column := range columns {
		names[i] = column.Name
	}

	return names
}

// ColumnExists reports whether name is a column of the effective schema.
func (m *Model) ColumnExists(name string) bool {
	for _, column := range m.ColumnNames() {
		if column == name {
			return true
		}
	}

	return false
}

// CreateTable creates the table if it does not exist yet.
func (m *Model) CreateTable(ctx context.Context, tx *Tx) error {
	if m.table == "" {
		return errors.NewModelConfigError("", "table")
	}

	columns, err := m.EffectiveSchema()
	if err != nil {
		return err
	}

	for _, stmt := range tx.Dialect().CreateTable(m.table, columns) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return errors.NewDatabaseError(err, "create table", m.table)
		}
	}

	return nil
}

// DropTable drops the table if it exists.
func (m *Model) DropTable(ctx context.Context, tx *Tx) error {
	if m.table == "" {
		return errors.NewModelConfigError("", "table")
	}

	for _, stmt := range tx.Dialect().DropTable(m.table) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return errors.NewDatabaseError(err, "drop table", m.table)
		}
	}

	return nil
}

// Create inserts one row with the columns of data, in data's order, and
// returns the id the engine assigned. ok is false when the insert failed.
func (m *Model) Create(ctx context.Context, data *Values) (id int64, ok bool) {
	var query string

	var args []any

	if data == nil || data.Len() == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s;", m.table, IDColumnName)
	} else {
		columns := make([]string, 0, data.Len())
		placeholders := make([]string, 0, data.Len())
		args = make([]any, 0, data.Len())

		for pair := data.Oldest(); pair != nil; pair = pair.Next() {
			columns = append(columns, pair.Key)
			placeholders = append(placeholders, "?")
			args = append(args, pair.Value)
		}

		query = fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) RETURNING %s;",
			m.table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), IDColumnName,
		)
	}

	if err := m.exec.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		m.fail("insert", err, msgCreateFailed)
		return 0, false
	}

	m.logger.WithField("id", id).Debug("Created record")

	return id, true
}

// Get returns the rows selected by filter and shaped by opts, in the order
// the engine returns them. Each row lists its columns in result order.
// A failed query yields an empty slice.
func (m *Model) Get(ctx context.Context, filter Filter, opts *Options) []*Values {
	rows, err := m.get(ctx, filter, opts)
	if err != nil {
		m.fail("select", err, msgGetFailed)
		return []*Values{}
	}

	return rows
}

// GetOne is Get limited to one row. It returns nil when nothing matched or
// the query failed.
func (m *Model) GetOne(ctx context.Context, filter Filter, opts *Options) *Values {
	limited := Options{}
	if opts != nil {
		limited = *opts
	}

	limited.Limit = 1

	rows := m.Get(ctx, filter, &limited)
	if len(rows) == 0 {
		return nil
	}

	return rows[0]
}

func (m *Model) get(ctx context.Context, filter Filter, opts *Options) ([]*Values, error) {
	where, err := BuildWhereClause(filter)
	if err != nil {
		return nil, err
	}

	suffix := buildOptionsSuffix(m.exec.Dialect(), opts, m.ColumnNames())

	query := fmt.Sprintf("SELECT * FROM %s%s%s;", m.table, where.SQL, suffix.SQL)
	args := append(where.Args, suffix.Args...)

	rows, err := m.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []*Values{}

	for rows.Next() {
		rowValues := make([]any, len(columns))
		rowPointers := make([]any, len(columns))

		for i := range rowValues {
			rowPointers[i] = &rowValues[i]
		}

		if err := rows.Scan(rowPointers...); err != nil {
			return nil, err
		}

		row := NewValues()

		for i, column := range columns {
			val := rowValues[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}

			row.Set(column, val)
		}

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// Delete removes the rows selected by filter and opts and returns the id of
// the last row removed (0 when nothing matched). ok is false when the
// statement failed. With an empty filter and no options every row goes.
func (m *Model) Delete(ctx context.Context, filter Filter, opts *Options) (id int64, ok bool) {
	id, err := m.delete(ctx, filter, opts)
	if err != nil {
		m.fail("delete", err, msgDeleteFailed)
		return 0, false
	}

	return id, true
}

func (m *Model) delete(ctx context.Context, filter Filter, opts *Options) (int64, error) {
	where, err := BuildWhereClause(filter)
	if err != nil {
		return 0, err
	}

	suffix := buildOptionsSuffix(m.exec.Dialect(), opts, m.ColumnNames())

	var query string
	if suffix.SQL == "" {
		query = fmt.Sprintf("DELETE FROM %s%s RETURNING %s;", m.table, where.SQL, IDColumnName)
	} else {
		// DELETE has no portable ORDER BY / LIMIT; select the ids instead.
		query = fmt.Sprintf(
			"DELETE FROM %[1]s WHERE %[2]s IN (SELECT %[2]s FROM %[1]s%[3]s%[4]s) RETURNING %[2]s;",
			m.table, IDColumnName, where.SQL, suffix.SQL,
		)
	}

	args := append(where.Args, suffix.Args...)

	rows, err := m.exec.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var last int64

	deleted := 0

	for rows.Next() {
		if err := rows.Scan(&last); err != nil {
			return 0, err
		}

		deleted++
	}

	if err := rows.Err(); err != nil {
		return 0, err
	}

	m.logger.WithField("deleted", deleted).Debug("Deleted records")

	return last, nil
}

// Count returns how many rows match filter.
func (m *Model) Count(ctx context.Context, filter Filter) (int64, bool) {
	where, err := BuildWhereClause(filter)
	if err != nil {
		m.fail("count", err, msgCountFailed)
		return 0, false
	}

	var count int64

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s;", m.table, where.SQL)
	if err := m.exec.QueryRow(ctx, query, where.Args...).Scan(&count); err != nil {
		m.fail("count", err, msgCountFailed)
		return 0, false
	}

	return count, true
}

func (m *Model) fail(operation string, err error, message string) {
	if !errors.IsType(err, errors.ErrTypeValidation) {
		err = errors.NewDatabaseError(err, operation, m.table)
	}

	m.logger.WithField("operation", operation).ErrorWithErr("Query failed", err)
	m.sink.Report(message)
}
