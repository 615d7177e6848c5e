package dataprocessing

import (
	"fmt"
)

// Table is an immutable rectangular dataset: ordered named columns and rows
// in source order. Stages never modify a table they receive; they build a
// new one.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable creates a table with the given columns and rows. Rows shorter
// than the header are padded with nulls; longer rows are truncated.
func NewTable(columns []string, rows [][]Value) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}

	t := &Table{
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    make([][]Value, 0, len(rows)),
	}
	for _, r := range rows {
		t.rows = append(t.rows, fitRow(r, len(columns)))
	}
	return t, nil
}

// MustTable is NewTable for fixed column sets; it panics on duplicate names.
func MustTable(columns []string, rows [][]Value) *Table {
	t, err := NewTable(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

func fitRow(r []Value, width int) []Value {
	out := make([]Value, width)
	copy(out, r)
	return out
}

// Columns returns a copy of the column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Get returns the cell at row i in the named column, or null if the column
// does not exist.
func (t *Table) Get(i int, column string) Value {
	j, ok := t.index[column]
	if !ok {
		return Null()
	}
	return t.rows[i][j]
}

// Lookup returns the named column's cell at row i, or def when the column
// is absent.
func (t *Table) Lookup(i int, column string, def Value) Value {
	j, ok := t.index[column]
	if !ok {
		return def
	}
	return t.rows[i][j]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	return append([]Value(nil), t.rows[i]...)
}

// Record returns row i keyed by column name.
func (t *Table) Record(i int) map[string]Value {
	rec := make(map[string]Value, len(t.columns))
	for j, c := range t.columns {
		rec[c] = t.rows[i][j]
	}
	return rec
}

// Records returns every row keyed by column name.
func (t *Table) Records() []map[string]Value {
	out := make([]map[string]Value, len(t.rows))
	for i := range t.rows {
		out[i] = t.Record(i)
	}
	return out
}

// Column returns the values of one column.
func (t *Table) Column(name string) ([]Value, bool) {
	j, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, true
}

// Require returns a SchemaError for the first of names that is missing.
func (t *Table) Require(stage string, names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return &SchemaError{Stage: stage, Column: n, Reason: "column not found"}
		}
	}
	return nil
}

// Head returns a table with at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	if n < 0 {
		n = 0
	}
	return t.selectRows(func(i int) bool { return i < n })
}

// Slice returns rows [offset, offset+limit). limit <= 0 means no limit.
func (t *Table) Slice(offset, limit int) *Table {
	return t.selectRows(func(i int) bool {
		return i >= offset && (limit <= 0 || i < offset+limit)
	})
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	return t.selectRows(func(int) bool { return true })
}

// selectRows copies the rows for which keep returns true. Row slices are
// copied so the result shares no mutable state with t.
func (t *Table) selectRows(keep func(i int) bool) *Table {
	out := &Table{
		columns: t.Columns(),
		index:   make(map[string]int, len(t.index)),
		rows:    make([][]Value, 0, len(t.rows)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	for i, r := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, append([]Value(nil), r...))
		}
	}
	return out
}

// WithColumn returns a copy of t with column set to values, appended at the
// end when new and replaced in place when it already exists.
func (t *Table) WithColumn(name string, values []Value) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	out := t.Clone()
	j, ok := out.index[name]
	if !ok {
		j = len(out.columns)
		out.columns = append(out.columns, name)
		out.index[name] = j
		for i := range out.rows {
			out.rows[i] = append(out.rows[i], Null())
		}
	}
	for i := range out.rows {
		out.rows[i][j] = values[i]
	}
	return out, nil
}

// WithConstant returns a copy of t with column filled with v.
func (t *Table) WithConstant(name string, v Value) *Table {
	values := make([]Value, len(t.rows))
	for i := range values {
		values[i] = v
	}
	out, _ := t.WithColumn(name, values)
	return out
}

// Drop returns a copy of t without the named columns. Absent names are
// ignored.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	keep := make([]int, 0, len(t.columns))
	cols := make([]string, 0, len(t.columns))
	for j, c := range t.columns {
		if !drop[c] {
			keep = append(keep, j)
			cols = append(cols, c)
		}
	}

	rows := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		nr := make([]Value, len(keep))
		for k, j := range keep {
			nr[k] = r[j]
		}
		rows[i] = nr
	}
	return MustTable(cols, rows)
}

// Rename returns a copy of t with columns renamed per mapping.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	cols := t.Columns()
	for j, c := range cols {
		if to, ok := mapping[c]; ok {
			cols[j] = to
		}
	}
	out, err := NewTable(cols, t.rows)
	if err != nil {
		return nil, err
	}
	return out, nil
}
