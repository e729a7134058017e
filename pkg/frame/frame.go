// Package frame provides the row-and-column table structure used to move
// tabular data in and out of the dataset layer without going through files.
package frame

import (
	"fmt"
)

// Frame is an in-memory table: named columns plus row-major values.
// A nil cell is a SQL NULL.
type Frame struct {
	Columns []string
	Rows    [][]any
}

// New creates an empty frame with the given column names.
func New(columns ...string) *Frame {
	return &Frame{Columns: columns}
}

// FromColumns builds a frame from column vectors. All vectors must have the
// same length.
func FromColumns(names []string, cols [][]any) (*Frame, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("frame: %d column names for %d column vectors", len(names), len(cols))
	}
	f := New(names...)
	if len(cols) == 0 {
		return f, nil
	}
	n := len(cols[0])
	for i, c := range cols {
		if len(c) != n {
			return nil, fmt.Errorf("frame: column %q has %d values, want %d", names[i], len(c), n)
		}
	}
	for r := 0; r < n; r++ {
		row := make([]any, len(cols))
		for c := range cols {
			row[c] = cols[c][r]
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

// Append adds a row. The value count must match the column count.
func (f *Frame) Append(values ...any) error {
	if len(values) != len(f.Columns) {
		return fmt.Errorf("frame: row has %d values, want %d", len(values), len(f.Columns))
	}
	f.Rows = append(f.Rows, values)
	return nil
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return len(f.Rows) }

// NumColumns returns the number of columns.
func (f *Frame) NumColumns() int { return len(f.Columns) }

// ColumnIndex returns the position of the named column, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the named column in row order.
func (f *Frame) Column(name string) ([]any, error) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("frame: column %q not found", name)
	}
	out := make([]any, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[idx]
	}
	return out, nil
}
