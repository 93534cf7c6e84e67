package table

import (
	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/column"
	"github.com/colonnade/colonnade/pkg/types"
)

type getConfig struct {
	deref   bool
	exclude map[string]struct{}
}

// GetOption configures row selection.
type GetOption func(*getConfig)

// WithNestedFrames dereferences region columns into nested frames
// instead of returning their raw row positions.
func WithNestedFrames() GetOption {
	return func(c *getConfig) { c.deref = true }
}

// ExcludeColumns drops the named columns from the result.
func ExcludeColumns(names ...string) GetOption {
	return func(c *getConfig) {
		if c.exclude == nil {
			c.exclude = make(map[string]struct{}, len(names))
		}
		for _, n := range names {
			c.exclude[n] = struct{}{}
		}
	}
}

// Column returns the public column with the given name; for a ragged
// column that is the outermost index. "id" returns the identifier
// column.
func (t *DynamicTable) Column(name string) (column.Column, error) {
	if name == "id" {
		return t.id, nil
	}
	slot, ok := t.colids[name]
	if !ok {
		return nil, colerr.Newf(colerr.ErrCategorySelection, colerr.CodeUnknownColumn,
			"'%s' is not a column in DynamicTable '%s'", name, t.Name())
	}
	return t.dfCols[slot], nil
}

// Cell returns the value of the named column at the given row. Region
// columns dereference to a single-row frame of the target table.
func (t *DynamicTable) Cell(row int, name string) (any, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if r, ok := c.(*DynamicTableRegion); ok && r.Table() != nil {
		return r.Dereference(types.At(row))
	}
	v, err := c.Get(types.At(row))
	if err != nil {
		return nil, t.normalizeRowErr(err)
	}
	return v, nil
}

// Rows selects rows into a frame. Ragged columns yield one array per
// row; region columns yield raw row positions unless nested frames are
// requested.
func (t *DynamicTable) Rows(sel types.Index, opts ...GetOption) (*Frame, error) {
	var cfg getConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	names := make([]string, 0, len(t.colnames))
	for _, n := range t.colnames {
		if _, skip := cfg.exclude[n]; skip {
			continue
		}
		names = append(names, n)
	}

	if at, ok := sel.(types.At); ok {
		return t.singleRow(int(at), names, cfg.deref)
	}
	pos, err := types.Positions(sel, t.Len())
	if err != nil {
		return nil, colerr.Wrap(colerr.ErrCategorySelection, colerr.CodeUnsupportedSelection,
			"selecting rows of '"+t.Name()+"'", err)
	}
	for _, p := range pos {
		if p < 0 || p >= t.Len() {
			return nil, t.rowOutOfRange(p)
		}
	}

	f := NewFrame(t.Name(), names)
	ids := t.id.Int64s()
	colVals := make(map[string]types.Array, len(names))
	for _, name := range names {
		arr, err := t.columnValues(name, types.List(pos), cfg.deref)
		if err != nil {
			return nil, err
		}
		colVals[name] = arr
	}
	for i, p := range pos {
		cells := make(map[string]any, len(names))
		for _, name := range names {
			cells[name] = colVals[name].Value(i)
		}
		f.addRow(ids[p], cells)
	}
	return f, nil
}

// RowValues selects rows and returns the raw per-column values in
// public column order, ids first. Only raw region positions are
// supported on this path; dereferencing requires frame assembly.
func (t *DynamicTable) RowValues(sel types.Index, rawRegions bool) ([]any, error) {
	if !rawRegions {
		return nil, colerr.New(colerr.ErrCategorySelection, colerr.CodeUnsupportedSelection,
			"row selection without a frame requires raw region positions")
	}
	idVal, err := t.id.Get(sel)
	if err != nil {
		return nil, t.normalizeRowErr(err)
	}
	out := []any{idVal}
	for _, name := range t.colnames {
		c := t.dfCols[t.colids[name]]
		v, err := c.Get(sel)
		if err != nil {
			return nil, t.normalizeRowErr(err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (t *DynamicTable) singleRow(row int, names []string, deref bool) (*Frame, error) {
	if row < 0 || row >= t.Len() {
		return nil, t.rowOutOfRange(row)
	}
	f := NewFrame(t.Name(), names)
	cells := make(map[string]any, len(names))
	for _, name := range names {
		v, err := t.cellValue(name, row, deref)
		if err != nil {
			return nil, err
		}
		cells[name] = v
	}
	id, err := t.id.ID(row)
	if err != nil {
		return nil, t.normalizeRowErr(err)
	}
	f.addRow(id, cells)
	return f, nil
}

// cellValue fetches one cell with the region policy applied.
func (t *DynamicTable) cellValue(name string, row int, deref bool) (any, error) {
	c := t.dfCols[t.colids[name]]
	if deref {
		if r, ok := c.(*DynamicTableRegion); ok && r.Table() != nil {
			return r.Dereference(types.At(row))
		}
		if ix, ok := c.(*column.VectorIndex); ok {
			if r := t.regionFor(name); r != nil && r.Table() != nil {
				return t.derefRaggedCell(ix, r, row)
			}
		}
	}
	v, err := c.Get(types.At(row))
	if err != nil {
		return nil, t.normalizeRowErr(err)
	}
	return v, nil
}

// columnValues fetches a multi-row selection for one column as an
// aligned array.
func (t *DynamicTable) columnValues(name string, sel types.List, deref bool) (types.Array, error) {
	c := t.dfCols[t.colids[name]]
	if deref {
		if r, ok := c.(*DynamicTableRegion); ok && r.Table() != nil {
			out := types.NewAnyArray()
			for _, p := range sel {
				f, err := r.Dereference(types.At(p))
				if err != nil {
					return nil, err
				}
				_ = out.Append(f)
			}
			return out, nil
		}
		if ix, ok := c.(*column.VectorIndex); ok {
			if r := t.regionFor(name); r != nil && r.Table() != nil {
				out := types.NewAnyArray()
				for _, p := range sel {
					f, err := t.derefRaggedCell(ix, r, p)
					if err != nil {
						return nil, err
					}
					_ = out.Append(f)
				}
				return out, nil
			}
		}
	}
	v, err := c.Get(sel)
	if err != nil {
		return nil, t.normalizeRowErr(err)
	}
	arr, ok := v.(types.Array)
	if !ok {
		return nil, colerr.Newf(colerr.ErrCategoryInternal, colerr.CodeUnexpected,
			"column '%s' returned a scalar for a ranged selection", name)
	}
	return arr, nil
}

// derefRaggedCell resolves one ragged group of region positions to a
// frame of target-table rows.
func (t *DynamicTable) derefRaggedCell(ix *column.VectorIndex, r *DynamicTableRegion, row int) (*Frame, error) {
	v, err := ix.Get(types.At(row))
	if err != nil {
		return nil, t.normalizeRowErr(err)
	}
	arr, ok := v.(types.Array)
	if !ok {
		return nil, colerr.Newf(colerr.ErrCategoryInternal, colerr.CodeUnexpected,
			"ragged column '%s' returned a scalar group", ix.Name())
	}
	pos := make([]int64, arr.Len())
	for i := range pos {
		pos[i], _ = types.AsInt64(arr.Value(i))
	}
	return r.scatter(pos)
}

// normalizeRowErr maps a column-level out-of-range failure to a
// table-level one naming the table and its length.
func (t *DynamicTable) normalizeRowErr(err error) error {
	if colerr.HasCode(err, colerr.CodeRowIndexOutOfRange) {
		return colerr.Wrap(colerr.ErrCategorySelection, colerr.CodeRowIndexOutOfRange,
			"row index out of range for DynamicTable '"+t.Name()+"'", err)
	}
	return err
}

func (t *DynamicTable) rowOutOfRange(row int) error {
	return colerr.Newf(colerr.ErrCategorySelection, colerr.CodeRowIndexOutOfRange,
		"row index %d out of range for DynamicTable '%s' (length %d)", row, t.Name(), t.Len())
}
