package build

import (
	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/column"
	"github.com/colonnade/colonnade/internal/table"
)

// BuildTable converts a table into a builder tree: one group holding
// the identifier dataset plus one dataset per storage column, in
// storage order, with the public column order as a group attribute.
func BuildTable(t *table.DynamicTable) (*GroupBuilder, error) {
	g := NewGroupBuilder(t.Name())
	g.SetAttribute(attrDataType, TypeDynamicTable)
	g.SetAttribute(attrObjectID, t.ObjectID())
	g.SetAttribute(attrDescription, t.Description())
	g.SetAttribute(attrColnames, t.Colnames())

	ids := t.IDs()
	idDS := NewDatasetBuilder("id", "int", toValues(ids.Int64s()))
	idDS.SetAttribute(attrDataType, TypeElementIdentifiers)
	idDS.SetAttribute(attrObjectID, ids.ObjectID())
	if err := g.AddDataset(idDS); err != nil {
		return nil, err
	}

	for _, c := range t.Columns() {
		ds, err := buildColumn(c)
		if err != nil {
			return nil, err
		}
		if err := g.AddDataset(ds); err != nil {
			return nil, err
		}
	}
	// A dictionary created implicitly by its enum column may not be a
	// storage column; serialize it anyway so the reference resolves.
	for _, c := range t.Columns() {
		e, ok := c.(*column.EnumData)
		if !ok || g.Dataset(e.Elements().Name()) != nil {
			continue
		}
		ds, err := buildColumn(e.Elements())
		if err != nil {
			return nil, err
		}
		if err := g.AddDataset(ds); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func buildColumn(c column.Column) (*DatasetBuilder, error) {
	switch col := c.(type) {
	case *column.VectorIndex:
		ds := NewDatasetBuilder(col.Name(), "int", toValues(col.Offsets()))
		ds.SetAttribute(attrDataType, TypeVectorIndex)
		ds.SetAttribute(attrObjectID, col.ObjectID())
		ds.SetAttribute(attrTarget, col.Target().Name())
		return ds, nil

	case *column.EnumData:
		ds := NewDatasetBuilder(col.Name(), "int", toValues(col.Codes()))
		ds.SetAttribute(attrDataType, TypeEnumData)
		ds.SetAttribute(attrObjectID, col.ObjectID())
		ds.SetAttribute(attrDescription, col.Description())
		ds.SetAttribute(attrElements, col.Elements().Name())
		return ds, nil

	case *table.DynamicTableRegion:
		ds := NewDatasetBuilder(col.Name(), "int", toValues(col.Positions()))
		ds.SetAttribute(attrDataType, TypeDynamicTableRegion)
		ds.SetAttribute(attrObjectID, col.ObjectID())
		ds.SetAttribute(attrDescription, col.Description())
		if tgt := col.Table(); tgt != nil {
			ds.SetAttribute(attrTable, tgt.Name())
		}
		return ds, nil

	case *column.VectorData:
		arr := col.Array()
		ds := NewDatasetBuilder(col.Name(), arr.Kind().String(), arr.Values())
		ds.SetAttribute(attrDataType, TypeVectorData)
		ds.SetAttribute(attrObjectID, col.ObjectID())
		ds.SetAttribute(attrDescription, col.Description())
		return ds, nil

	default:
		return nil, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
			"cannot build column '%s' of unknown type", c.Name())
	}
}

// ReconstructOption configures ReconstructTable.
type ReconstructOption func(*ReconstructContext)

// WithTables supplies external tables that region columns in the tree
// may reference by name.
func WithTables(tables map[string]*table.DynamicTable) ReconstructOption {
	return func(ctx *ReconstructContext) {
		for k, v := range tables {
			ctx.Tables[k] = v
		}
	}
}

// ReconstructTable rebuilds a table from a builder tree using the given
// registry. Datasets are processed deepest-dependency first; storage
// order puts index chains before their targets and enum columns before
// their dictionaries, so reverse order resolves every reference.
func ReconstructTable(g *GroupBuilder, tm *TypeMap, opts ...ReconstructOption) (*table.DynamicTable, error) {
	if g.Attr(attrDataType) != TypeDynamicTable {
		return nil, colerr.Newf(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
			"builder group '%s' is not a DynamicTable", g.Name)
	}
	ctx := &ReconstructContext{
		Columns: make(map[string]column.Column),
		Tables:  make(map[string]*table.DynamicTable),
	}
	for _, opt := range opts {
		opt(ctx)
	}

	idDS := g.Dataset("id")
	if idDS == nil {
		return nil, colerr.Newf(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
			"builder group '%s' has no identifier dataset", g.Name)
	}
	ids, err := asInt64Slice(idDS.Data)
	if err != nil {
		return nil, err
	}
	idCol, err := column.NewElementIdentifiers("id", ids...)
	if err != nil {
		return nil, err
	}
	idCol.RestoreObjectID(idDS.Attr(attrObjectID))

	var names []string
	for i := len(g.Datasets) - 1; i >= 0; i-- {
		ds := g.Datasets[i]
		if ds.Name == "id" {
			continue
		}
		fn, err := tm.Get(ds.Attr(attrDataType))
		if err != nil {
			return nil, err
		}
		col, err := fn(ds, ctx)
		if err != nil {
			return nil, err
		}
		ctx.Columns[ds.Name] = col
		names = append(names, ds.Name)
	}

	// Enum dictionaries are owned by their enum column, not supplied to
	// the table directly.
	elements := make(map[string]struct{})
	for _, c := range ctx.Columns {
		if e, ok := c.(*column.EnumData); ok {
			elements[e.Elements().Name()] = struct{}{}
		}
	}
	// Restore storage order.
	cols := make([]column.Column, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		if _, skip := elements[names[i]]; skip {
			continue
		}
		cols = append(cols, ctx.Columns[names[i]])
	}

	colnames, err := attrStrings(g.Attributes[attrColnames])
	if err != nil {
		return nil, err
	}

	tblOpts := []table.TableOption{
		table.WithIDColumn(idCol),
		table.WithColumns(cols...),
	}
	if len(colnames) > 0 {
		tblOpts = append(tblOpts, table.WithColnames(colnames...))
	}
	t, err := table.NewDynamicTable(g.Name, g.Attr(attrDescription), tblOpts...)
	if err != nil {
		return nil, err
	}
	t.RestoreObjectID(g.Attr(attrObjectID))
	t.SetModified(false)
	return t, nil
}

func attrStrings(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return x, nil
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, colerr.Newf(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
					"column name %v is not a string", e)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, colerr.Newf(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
			"unexpected colnames attribute of type %T", v)
	}
}

func toValues[T int64 | uint64](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
