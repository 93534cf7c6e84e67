package container

import (
	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/pkg/types"
)

// Data is a Container wrapping a single homogeneous array payload.
type Data struct {
	Base
	data types.Array
}

// NewData creates a Data container over the given payload. A nil payload
// becomes an empty untyped array. Extra field specs from embedding types
// are registered alongside Data's own.
func NewData(name string, data types.Array, specs ...FieldSpec) (Data, error) {
	base, err := NewBase(name, specs...)
	if err != nil {
		return Data{}, err
	}
	if data == nil {
		data = types.NewAnyArray()
	}
	return Data{Base: base, data: data}, nil
}

// Array returns the underlying payload.
func (d *Data) Array() types.Array { return d.data }

// SetArray replaces the underlying payload. Intended for internal use by
// width migrations and reconstruction, not general mutation.
func (d *Data) SetArray(a types.Array) {
	d.data = a
	d.SetModified(true)
}

// Len returns the number of elements in the payload.
func (d *Data) Len() int { return d.data.Len() }

// Append adds a single element to the payload.
func (d *Data) Append(v any) error {
	if err := d.data.Append(v); err != nil {
		return colerr.Wrap(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
			"appending to '"+d.Name()+"'", err)
	}
	d.SetModified(true)
	return nil
}

// Extend appends all elements of vals to the payload.
func (d *Data) Extend(vals types.Array) error {
	if err := d.data.Extend(vals); err != nil {
		return colerr.Wrap(colerr.ErrCategoryColumn, colerr.CodeInvalidData,
			"extending '"+d.Name()+"'", err)
	}
	d.SetModified(true)
	return nil
}

// Get selects elements from the payload. A scalar index returns the
// element itself; ranges, position lists, and boolean masks return a
// gathered Array. Out-of-range positions fail with ROW_INDEX_OUT_OF_RANGE.
func (d *Data) Get(ix types.Index) (any, error) {
	n := d.data.Len()
	if at, ok := ix.(types.At); ok {
		i := int(at)
		if i < 0 || i >= n {
			return nil, d.outOfRange(i, n)
		}
		return d.data.Value(i), nil
	}
	pos, err := types.Positions(ix, n)
	if err != nil {
		return nil, colerr.Wrap(colerr.ErrCategorySelection, colerr.CodeUnsupportedSelection,
			"selecting from '"+d.Name()+"'", err)
	}
	for _, p := range pos {
		if p < 0 || p >= n {
			return nil, d.outOfRange(p, n)
		}
	}
	return d.data.Gather(pos), nil
}

func (d *Data) outOfRange(i, n int) error {
	return colerr.Newf(colerr.ErrCategorySelection, colerr.CodeRowIndexOutOfRange,
		"index %d out of range for '%s' (length %d)", i, d.Name(), n)
}
