package build

import (
	"math"

	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/column"
	"github.com/colonnade/colonnade/internal/table"
	"github.com/colonnade/colonnade/pkg/types"
)

// Data type names written into builder attributes.
const (
	TypeDynamicTable       = "DynamicTable"
	TypeElementIdentifiers = "ElementIdentifiers"
	TypeVectorData         = "VectorData"
	TypeVectorIndex        = "VectorIndex"
	TypeEnumData           = "EnumData"
	TypeDynamicTableRegion = "DynamicTableRegion"
)

// ReconstructContext carries the state a reconstructor may need:
// columns already rebuilt from the same tree, and external tables a
// region column may reference.
type ReconstructContext struct {
	Columns map[string]column.Column
	Tables  map[string]*table.DynamicTable
}

// Reconstructor rebuilds one column from its dataset builder.
type Reconstructor func(d *DatasetBuilder, ctx *ReconstructContext) (column.Column, error)

// TypeMap is an explicit registry mapping data type names to
// reconstructors. Registries are passed by reference; there is no
// ambient global registration.
type TypeMap struct {
	byType map[string]Reconstructor
}

// NewTypeMap creates an empty registry.
func NewTypeMap() *TypeMap {
	return &TypeMap{byType: make(map[string]Reconstructor)}
}

// Register binds a data type name to a reconstructor. Rebinding an
// existing name is refused.
func (tm *TypeMap) Register(name string, fn Reconstructor) error {
	if _, dup := tm.byType[name]; dup {
		return colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeAlreadySet,
			"data type '%s' is already registered", name)
	}
	tm.byType[name] = fn
	return nil
}

// Get returns the reconstructor for a data type name.
func (tm *TypeMap) Get(name string) (Reconstructor, error) {
	fn, ok := tm.byType[name]
	if !ok {
		return nil, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidData,
			"no reconstructor registered for data type '%s'", name)
	}
	return fn, nil
}

// DefaultTypeMap returns a registry covering the built-in column types.
func DefaultTypeMap() *TypeMap {
	tm := NewTypeMap()
	_ = tm.Register(TypeVectorData, reconstructVectorData)
	_ = tm.Register(TypeVectorIndex, reconstructVectorIndex)
	_ = tm.Register(TypeEnumData, reconstructEnumData)
	_ = tm.Register(TypeDynamicTableRegion, reconstructRegion)
	return tm
}

func reconstructVectorData(d *DatasetBuilder, _ *ReconstructContext) (column.Column, error) {
	arr, err := toArray(d.Kind, d.Data)
	if err != nil {
		return nil, err
	}
	v, err := column.NewVectorData(d.Name, d.Attr(attrDescription), arr)
	if err != nil {
		return nil, err
	}
	v.RestoreObjectID(d.Attr(attrObjectID))
	return v, nil
}

func reconstructVectorIndex(d *DatasetBuilder, ctx *ReconstructContext) (column.Column, error) {
	tgtName := d.Attr(attrTarget)
	tgt, ok := ctx.Columns[tgtName]
	if !ok {
		return nil, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
			"index '%s' references unknown target '%s'", d.Name, tgtName)
	}
	offs, err := asUint64Slice(d.Data)
	if err != nil {
		return nil, err
	}
	ix, err := column.NewVectorIndex(d.Name, offs, tgt)
	if err != nil {
		return nil, err
	}
	ix.RestoreObjectID(d.Attr(attrObjectID))
	return ix, nil
}

func reconstructEnumData(d *DatasetBuilder, ctx *ReconstructContext) (column.Column, error) {
	elName := d.Attr(attrElements)
	el, ok := ctx.Columns[elName].(*column.VectorData)
	if !ok {
		return nil, colerr.Newf(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
			"enum '%s' references unknown elements '%s'", d.Name, elName)
	}
	codes, err := asUint64Slice(d.Data)
	if err != nil {
		return nil, err
	}
	e, err := column.NewEnumData(d.Name, d.Attr(attrDescription), codes, el)
	if err != nil {
		return nil, err
	}
	e.RestoreObjectID(d.Attr(attrObjectID))
	return e, nil
}

func reconstructRegion(d *DatasetBuilder, ctx *ReconstructContext) (column.Column, error) {
	pos, err := asInt64Slice(d.Data)
	if err != nil {
		return nil, err
	}
	var tgt *table.DynamicTable
	if name := d.Attr(attrTable); name != "" {
		// A missing target is not fatal: the region keeps its raw
		// positions and the table can be bound later.
		tgt = ctx.Tables[name]
	}
	r, err := table.NewDynamicTableRegion(d.Name, d.Attr(attrDescription), pos, tgt)
	if err != nil {
		return nil, err
	}
	r.RestoreObjectID(d.Attr(attrObjectID))
	return r, nil
}

// toArray rebuilds a typed array from a JSON-decoded payload. Numbers
// arrive as float64 and are narrowed back per the recorded kind.
func toArray(kind string, data []any) (types.Array, error) {
	k := types.KindFromString(kind)
	if k == types.KindInvalid {
		return nil, colerr.Newf(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
			"unknown array kind %q", kind)
	}
	arr := types.NewArray(k)
	for _, v := range data {
		if k == types.KindInt {
			n, ok := asNumber(v)
			if !ok {
				return nil, colerr.Newf(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
					"value %v is not an integer", v)
			}
			v = n
		}
		if err := arr.Append(v); err != nil {
			return nil, colerr.Wrap(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
				"rebuilding array payload", err)
		}
	}
	return arr, nil
}

// asNumber accepts the integer representations a JSON round-trip can
// produce.
func asNumber(v any) (int64, bool) {
	if f, ok := v.(float64); ok {
		if f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	}
	return types.AsInt64(v)
}

func asUint64Slice(data []any) ([]uint64, error) {
	out := make([]uint64, len(data))
	for i, v := range data {
		n, ok := asNumber(v)
		if !ok || n < 0 {
			return nil, colerr.Newf(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
				"value %v is not an unsigned integer", v)
		}
		out[i] = uint64(n)
	}
	return out, nil
}

func asInt64Slice(data []any) ([]int64, error) {
	out := make([]int64, len(data))
	for i, v := range data {
		n, ok := asNumber(v)
		if !ok {
			return nil, colerr.Newf(colerr.ErrCategoryStorage, colerr.CodeInvalidData,
				"value %v is not an integer", v)
		}
		out[i] = n
	}
	return out, nil
}
