package model

import (
	"fmt"
	"iter"
	"slices"
	"unicode/utf8"
)

// Table is tabular data with a fixed set of columns.
//
// Every row has exactly one value per column. The table tracks, per column,
// the widest display form seen so far (starting from the column name) so
// that text formatters can align columns without a second pass.
type Table struct {
	columns []string
	rows    [][]any
	widths  []int
}

// NewTable creates an empty table with the given column names.
// The number of names fixes the row width for the table's lifetime.
func NewTable(columns ...string) *Table {
	t := &Table{
		columns: slices.Clone(columns),
		widths:  make([]int, len(columns)),
	}
	for i, name := range columns {
		t.widths[i] = utf8.RuneCountInString(name)
	}
	return t
}

// Add appends a row. It returns ErrRowLength, leaving the table unchanged,
// when len(values) differs from NCol.
func (t *Table) Add(values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: expected %d values, got %d", ErrRowLength, len(t.columns), len(values))
	}

	t.rows = append(t.rows, slices.Clone(values))
	for i, v := range values {
		t.widths[i] = max(t.widths[i], valueWidth(v))
	}
	return nil
}

// SortBy stably sorts the rows in ascending order of the named column.
func (t *Table) SortBy(name string) error {
	i := slices.Index(t.columns, name)
	if i < 0 {
		return fmt.Errorf("%w: %q not in %v", ErrUnknownColumn, name, t.columns)
	}
	t.sortColumn(i)
	return nil
}

// SortByIndex stably sorts the rows in ascending order of the column at
// the 0-based index.
func (t *Table) SortByIndex(index int) error {
	if index < 0 || index >= len(t.columns) {
		return fmt.Errorf("%w: %d not in 0..%d", ErrColumnRange, index, len(t.columns)-1)
	}
	t.sortColumn(index)
	return nil
}

func (t *Table) sortColumn(i int) {
	slices.SortStableFunc(t.rows, func(a, b []any) int {
		return Compare(a[i], b[i])
	})
}

// Rows yields each row in the current order. The yielded slices belong to
// the table and must not be modified.
func (t *Table) Rows() iter.Seq[[]any] {
	return func(yield func([]any) bool) {
		for _, row := range t.rows {
			if !yield(row) {
				return
			}
		}
	}
}

// Row returns a copy of the row at index i.
func (t *Table) Row(i int) []any {
	return slices.Clone(t.rows[i])
}

// Values returns each row as a column name to value mapping.
func (t *Table) Values() []map[string]any {
	out := make([]map[string]any, len(t.rows))
	for r, row := range t.rows {
		m := make(map[string]any, len(t.columns))
		for i, name := range t.columns {
			m[name] = row[i]
		}
		out[r] = m
	}
	return out
}

// ColumnNames returns a copy of the column names.
func (t *Table) ColumnNames() []string {
	return slices.Clone(t.columns)
}

// ColumnWidths returns a copy of the per-column maximum display widths.
func (t *Table) ColumnWidths() []int {
	return slices.Clone(t.widths)
}

// NCol returns the number of columns.
func (t *Table) NCol() int {
	return len(t.columns)
}

// NRow returns the number of rows.
func (t *Table) NRow() int {
	return len(t.rows)
}
