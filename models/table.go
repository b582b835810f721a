package models

// Table is an in-memory tabular dataset: a header and rows of nullable
// cells, every row as wide as the header.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// NewTable returns an empty table with a copy of columns.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Column returns the index of the named column, or -1 when absent.
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Get returns the cell at row i in the named column; null when the column
// is absent.
func (t *Table) Get(i int, column string) Value {
	idx := t.Column(column)
	if idx < 0 {
		return Null()
	}
	return t.Rows[i][idx]
}

// Filter keeps the rows for which keep returns true and reports how many
// were dropped. Row order is preserved.
func (t *Table) Filter(keep func(row []Value) bool) int {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if keep(row) {
			kept = append(kept, row)
		}
	}
	dropped := len(t.Rows) - len(kept)
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return dropped
}

// RowIsEmpty reports whether every cell in row is null.
func RowIsEmpty(row []Value) bool {
	for _, v := range row {
		if !v.IsNull() {
			return false
		}
	}
	return true
}
