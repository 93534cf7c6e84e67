package column

import (
	"fmt"

	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/container"
	"github.com/colonnade/colonnade/pkg/types"
)

// extender is satisfied by columns whose backing payload can be extended
// in bulk. Columns that validate appends override it so the bulk path
// sees the same checks as AddRow: EnumData routes through term encoding,
// VectorData through its term set, and region columns through their
// range check.
type extender interface {
	Extend(vals types.Array) error
}

// VectorIndex turns a flat target column into a ragged array. Element i
// of the index holds the exclusive end offset of ragged group i in the
// target; group i starts at offset 0 when i == 0 and at element i-1
// otherwise. The target may itself be a VectorIndex, forming a
// multi-level ragged chain.
//
// Offsets are stored at the narrowest unsigned width that fits the
// current maximum and migrate upward transparently as the target grows.
type VectorIndex struct {
	container.Base
	offsets *UintVector
	target  Column
}

// NewVectorIndex creates an index over target with the given initial
// offsets.
func NewVectorIndex(name string, offsets []uint64, target Column) (*VectorIndex, error) {
	if target == nil {
		return nil, colerr.New(colerr.ErrCategoryValidation, colerr.CodeInvalidColumnSpec,
			"vector index requires a target column")
	}
	base, err := container.NewBase(name,
		container.FieldSpec{Name: "description", Doc: "a description for this column", Settable: true},
		container.FieldSpec{Name: "target", Doc: "the target column this index applies to", Settable: true},
	)
	if err != nil {
		return nil, err
	}
	ix := &VectorIndex{
		Base:    base,
		offsets: NewUintVector(offsets...),
		target:  target,
	}
	desc := fmt.Sprintf("Index for VectorData '%s'", target.Name())
	if err := container.SetField(ix, "description", desc); err != nil {
		return nil, err
	}
	if err := container.SetField(ix, "target", target); err != nil {
		return nil, err
	}
	return ix, nil
}

// Target returns the indexed column.
func (ix *VectorIndex) Target() Column { return ix.target }

// Description returns the index description.
func (ix *VectorIndex) Description() string {
	s, _ := ix.Fields().Get("description").(string)
	return s
}

// Len returns the number of ragged groups.
func (ix *VectorIndex) Len() int { return ix.offsets.Len() }

// Offsets returns the decoded offset values.
func (ix *VectorIndex) Offsets() []uint64 { return ix.offsets.Values() }

// OffsetWidth returns the current offset storage width in bytes.
func (ix *VectorIndex) OffsetWidth() int { return ix.offsets.Width() }

// AddVector appends one ragged group. If the target is itself a
// VectorIndex, each element of val is added to it recursively; otherwise
// the target's payload is extended with val's elements. The group's end
// offset is then recorded.
func (ix *VectorIndex) AddVector(val any) error {
	arr, err := types.AsArray(val)
	if err != nil {
		return colerr.Wrap(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
			"adding vector to '"+ix.Name()+"'", err)
	}
	if nested, ok := ix.target.(*VectorIndex); ok {
		for i := 0; i < arr.Len(); i++ {
			if err := nested.AddVector(arr.Value(i)); err != nil {
				return err
			}
		}
	} else if ext, ok := ix.target.(extender); ok {
		if err := ext.Extend(arr); err != nil {
			return err
		}
	} else {
		for i := 0; i < arr.Len(); i++ {
			if err := ix.target.AddRow(arr.Value(i)); err != nil {
				return err
			}
		}
	}
	if err := ix.offsets.Append(uint64(ix.target.Len())); err != nil {
		return err
	}
	ix.SetModified(true)
	return nil
}

// AddRow is a convenience alias for AddVector so a VectorIndex can stand
// in anywhere a Column is expected.
func (ix *VectorIndex) AddRow(val any) error { return ix.AddVector(val) }

// Get selects ragged groups. A scalar index returns group i as retrieved
// from the target (an Array for a flat target, a group-of-groups for a
// nested chain). Range, list, and mask selections return an Array whose
// elements are the per-group results, preserving raggedness.
func (ix *VectorIndex) Get(sel types.Index) (any, error) {
	n := ix.offsets.Len()
	if at, ok := sel.(types.At); ok {
		return ix.group(int(at))
	}
	pos, err := types.Positions(sel, n)
	if err != nil {
		return nil, colerr.Wrap(colerr.ErrCategorySelection, colerr.CodeUnsupportedSelection,
			"selecting from '"+ix.Name()+"'", err)
	}
	groups := make([]any, 0, len(pos))
	for _, p := range pos {
		g, err := ix.group(p)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return types.NewAnyArray(groups...), nil
}

func (ix *VectorIndex) group(i int) (any, error) {
	n := ix.offsets.Len()
	if i < 0 || i >= n {
		return nil, colerr.Newf(colerr.ErrCategorySelection, colerr.CodeRowIndexOutOfRange,
			"index %d out of range for '%s' (length %d)", i, ix.Name(), n)
	}
	start := 0
	if i > 0 {
		start = int(ix.offsets.At(i - 1))
	}
	end := int(ix.offsets.At(i))
	return ix.target.Get(types.Span{Start: start, End: end})
}
