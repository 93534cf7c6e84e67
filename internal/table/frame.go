package table

import (
	"github.com/colonnade/colonnade/pkg/types"
)

// Frame is a materialized row selection: per-row identifiers plus one
// cell slice per column, in the table's public column order. Ragged
// cells hold a types.Array; dereferenced region cells hold a *Frame.
type Frame struct {
	// Name is the name of the table the frame was selected from.
	Name string

	// IDs holds the row identifier for each selected row.
	IDs []int64

	// Colnames is the public column order.
	Colnames []string

	// Cells maps each column name to its per-row cell values, aligned
	// with IDs.
	Cells map[string][]any
}

// NewFrame creates an empty frame with the given shape.
func NewFrame(name string, colnames []string) *Frame {
	f := &Frame{
		Name:     name,
		Colnames: append([]string(nil), colnames...),
		Cells:    make(map[string][]any, len(colnames)),
	}
	for _, c := range f.Colnames {
		f.Cells[c] = nil
	}
	return f
}

// NumRows returns the number of rows in the frame.
func (f *Frame) NumRows() int { return len(f.IDs) }

// NumCols returns the number of columns in the frame.
func (f *Frame) NumCols() int { return len(f.Colnames) }

// Cell returns the value of the named column at frame row i, or nil if
// the column is absent or the row out of range.
func (f *Frame) Cell(i int, col string) any {
	cells, ok := f.Cells[col]
	if !ok || i < 0 || i >= len(cells) {
		return nil
	}
	return cells[i]
}

// Row returns frame row i as a name-to-value map, with the row
// identifier under "id".
func (f *Frame) Row(i int) map[string]any {
	if i < 0 || i >= len(f.IDs) {
		return nil
	}
	out := make(map[string]any, len(f.Colnames)+1)
	out["id"] = f.IDs[i]
	for _, c := range f.Colnames {
		out[c] = f.Cells[c][i]
	}
	return out
}

// Equal reports whether two frames hold the same ids, columns, and cell
// values. Cell comparison is loose on numeric width and recurses into
// arrays and nested frames.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil {
		return false
	}
	if len(f.IDs) != len(other.IDs) || len(f.Colnames) != len(other.Colnames) {
		return false
	}
	for i, id := range f.IDs {
		if other.IDs[i] != id {
			return false
		}
	}
	for i, c := range f.Colnames {
		if other.Colnames[i] != c {
			return false
		}
	}
	for _, c := range f.Colnames {
		a, b := f.Cells[c], other.Cells[c]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !cellEqual(a[i], b[i]) {
				return false
			}
		}
	}
	return true
}

func cellEqual(a, b any) bool {
	fa, aok := a.(*Frame)
	fb, bok := b.(*Frame)
	if aok || bok {
		return aok && bok && fa.Equal(fb)
	}
	return types.ValueEqual(a, b)
}

func (f *Frame) addRow(id int64, cells map[string]any) {
	f.IDs = append(f.IDs, id)
	for _, c := range f.Colnames {
		f.Cells[c] = append(f.Cells[c], cells[c])
	}
}
