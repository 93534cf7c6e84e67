package table

import (
	"sort"

	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/column"
	"github.com/colonnade/colonnade/internal/container"
	"github.com/colonnade/colonnade/pkg/types"
)

// DynamicTableRegion is a column whose values are row positions in
// another table. Getting through the region dereferences positions to
// rows of the target; the raw positions stay available through the
// embedded VectorData.
type DynamicTableRegion struct {
	column.VectorData
	table *DynamicTable
}

// NewDynamicTableRegion creates a region column. target may be nil and
// set once later; with a target present, every position must be a valid
// row of it.
func NewDynamicTableRegion(name, description string, data any, target *DynamicTable) (*DynamicTableRegion, error) {
	arr, err := asRegionData(data)
	if err != nil {
		return nil, err
	}
	vd, err := column.NewVectorData(name, description, arr,
		column.WithFieldSpecs(container.FieldSpec{
			Name:     "table",
			Doc:      "the target table this region applies to",
			Settable: true,
		}))
	if err != nil {
		return nil, err
	}
	r := &DynamicTableRegion{VectorData: *vd}
	if target != nil {
		if err := r.SetTable(target); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func asRegionData(data any) (*types.Int64Array, error) {
	if data == nil {
		return types.NewInt64Array(), nil
	}
	arr, err := types.AsArray(data)
	if err != nil {
		return nil, colerr.Wrap(colerr.ErrCategoryValidation, colerr.CodeInvalidData,
			"region data", err)
	}
	out := types.NewInt64Array()
	for i := 0; i < arr.Len(); i++ {
		v, ok := types.AsInt64(arr.Value(i))
		if !ok {
			return nil, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidData,
				"region value %v is not a row position", arr.Value(i))
		}
		if err := out.Append(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Table returns the target table, or nil while unset.
func (r *DynamicTableRegion) Table() *DynamicTable { return r.table }

// SetTable binds the target table. It can succeed once; existing
// positions are range-checked against the target.
func (r *DynamicTableRegion) SetTable(t *DynamicTable) error {
	for i := 0; i < r.Len(); i++ {
		v, _ := types.AsInt64(r.Array().Value(i))
		if v < 0 || int(v) >= t.Len() {
			return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeRowIndexOutOfRange,
				"region '%s' references row %d of DynamicTable '%s' (length %d)",
				r.Name(), v, t.Name(), t.Len())
		}
	}
	if err := container.SetField(r, "table", t); err != nil {
		return err
	}
	r.table = t
	return nil
}

// checkPosition validates one candidate position without appending it.
func (r *DynamicTableRegion) checkPosition(val any) (int64, error) {
	v, ok := types.AsInt64(val)
	if !ok {
		return 0, colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
			"region value %v is not a row position", val)
	}
	if r.table != nil && (v < 0 || int(v) >= r.table.Len()) {
		return 0, colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeRowIndexOutOfRange,
			"region '%s' references row %d of DynamicTable '%s' (length %d)",
			r.Name(), v, r.table.Name(), r.table.Len())
	}
	return v, nil
}

// AddRow appends a row position, range-checked when a target is bound.
func (r *DynamicTableRegion) AddRow(val any) error {
	v, err := r.checkPosition(val)
	if err != nil {
		return err
	}
	return r.Append(v)
}

// Extend appends positions in bulk, range-checking each one. Index
// columns over a region take this path, so ragged region groups see the
// same checks as flat appends.
func (r *DynamicTableRegion) Extend(vals types.Array) error {
	for i := 0; i < vals.Len(); i++ {
		if _, err := r.checkPosition(vals.Value(i)); err != nil {
			return err
		}
	}
	return r.VectorData.Extend(vals)
}

// Positions returns the raw row positions held by the region.
func (r *DynamicTableRegion) Positions() []int64 {
	out := make([]int64, r.Len())
	for i := range out {
		out[i], _ = types.AsInt64(r.Array().Value(i))
	}
	return out
}

// Dereference resolves a selection of region elements to rows of the
// target table. Distinct referenced rows are fetched once and the
// result is scattered back into selection order. A scalar selection
// yields a single-row frame.
func (r *DynamicTableRegion) Dereference(sel types.Index) (*Frame, error) {
	if r.table == nil {
		return nil, colerr.Newf(colerr.ErrCategorySelection, colerr.CodeUnknownColumn,
			"region '%s' has no target table bound", r.Name())
	}
	raw, err := r.Get(sel)
	if err != nil {
		return nil, err
	}
	if types.IsScalar(sel) {
		pos, _ := types.AsInt64(raw)
		return r.table.Rows(types.At(int(pos)))
	}
	arr := raw.(types.Array)
	pos := make([]int64, arr.Len())
	for i := range pos {
		pos[i], _ = types.AsInt64(arr.Value(i))
	}
	return r.scatter(pos)
}

// scatter fetches each distinct position once, then lays the fetched
// rows out in the order the region holds them.
func (r *DynamicTableRegion) scatter(pos []int64) (*Frame, error) {
	uniq := make([]int, 0, len(pos))
	seen := make(map[int64]int, len(pos))
	for _, p := range pos {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = 0
		uniq = append(uniq, int(p))
	}
	sort.Ints(uniq)
	for i, p := range uniq {
		seen[int64(p)] = i
	}

	fetched, err := r.table.Rows(types.List(uniq))
	if err != nil {
		return nil, err
	}

	out := NewFrame(fetched.Name, fetched.Colnames)
	for _, p := range pos {
		i := seen[p]
		cells := make(map[string]any, len(fetched.Colnames))
		for _, c := range fetched.Colnames {
			cells[c] = fetched.Cells[c][i]
		}
		out.addRow(fetched.IDs[i], cells)
	}
	return out, nil
}

// CreateRegion builds a region column over rows of this table.
func (t *DynamicTable) CreateRegion(name, description string, rows []int) (*DynamicTableRegion, error) {
	for _, p := range rows {
		if p < 0 || p >= t.Len() {
			return nil, colerr.Newf(colerr.ErrCategorySelection, colerr.CodeRowIndexOutOfRange,
				"row index %d out of range for DynamicTable '%s' (length %d)", p, t.Name(), t.Len())
		}
	}
	pos := make([]int64, len(rows))
	for i, p := range rows {
		pos[i] = int64(p)
	}
	return NewDynamicTableRegion(name, description, pos, t)
}

// ForeignColumns returns the names of public columns that reference
// rows of another table.
func (t *DynamicTable) ForeignColumns() []string {
	var out []string
	for _, name := range t.colnames {
		if t.regionFor(name) != nil {
			out = append(out, name)
		}
	}
	return out
}

// HasForeignColumns reports whether any column references another
// table.
func (t *DynamicTable) HasForeignColumns() bool {
	return len(t.ForeignColumns()) > 0
}

// regionFor resolves the named column through any index chain down to a
// region, or nil.
func (t *DynamicTable) regionFor(name string) *DynamicTableRegion {
	slot, ok := t.colids[name]
	if !ok {
		return nil
	}
	c := t.dfCols[slot]
	for {
		ix, ok := c.(*column.VectorIndex)
		if !ok {
			break
		}
		c = ix.Target()
	}
	r, _ := c.(*DynamicTableRegion)
	return r
}

// TableLink records one region edge in a graph of linked tables.
type TableLink struct {
	Source *DynamicTable
	Column string
	Target *DynamicTable
}

// LinkedTables walks region columns transitively and returns every
// table-to-table edge reachable from this table. Cycles are followed
// once.
func (t *DynamicTable) LinkedTables() []TableLink {
	var out []TableLink
	visited := map[string]struct{}{t.ObjectID(): {}}
	queue := []*DynamicTable{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, name := range cur.ForeignColumns() {
			r := cur.regionFor(name)
			tgt := r.Table()
			if tgt == nil {
				continue
			}
			out = append(out, TableLink{Source: cur, Column: name, Target: tgt})
			if _, ok := visited[tgt.ObjectID()]; !ok {
				visited[tgt.ObjectID()] = struct{}{}
				queue = append(queue, tgt)
			}
		}
	}
	return out
}
