// Package dataset handles the tabular side of a judgment run: loading and
// saving delimited tables, extracting sentence pairs from selected columns,
// and reconciling judgment results back onto the correct original rows.
package dataset

import "errors"

// Dataset-level errors. These are fatal to the specific load/extract/merge
// operation only; callers decide whether to abort the surrounding workflow.
var (
	// ErrUnknownColumn indicates a configured column is not in the table.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNoValidRows indicates no row survived the extraction filter.
	ErrNoValidRows = errors.New("no valid rows after filtering")

	// ErrUnsupportedEncoding indicates an unrecognized declared encoding.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// Table is an in-memory delimited table: a header and its rows. Rows may be
// ragged; missing trailing cells read as empty.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of a named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Cell returns the value at (row, col), empty for cells beyond a ragged
// row's end.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// EnsureColumns appends any missing named columns and pads every row with
// empty cells so all rows cover the full header.
func (t *Table) EnsureColumns(names ...string) {
	for _, name := range names {
		if _, ok := t.ColumnIndex(name); !ok {
			t.Columns = append(t.Columns, name)
		}
	}
	for i, row := range t.Rows {
		for len(row) < len(t.Columns) {
			row = append(row, "")
		}
		t.Rows[i] = row
	}
}

// Set writes a cell, padding the row if it is ragged.
func (t *Table) Set(row, col int, value string) {
	for len(t.Rows[row]) <= col {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][col] = value
}
