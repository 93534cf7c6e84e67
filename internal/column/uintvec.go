// Package column implements the column primitives that DynamicTable is
// composed of: flat typed columns, ragged-array index columns with
// adaptive integer width, the primary-key column, and dictionary-encoded
// enum columns.
package column

import (
	"encoding/binary"

	colerr "github.com/colonnade/colonnade/internal/errors"
)

// maxWidth is the widest supported element encoding in bytes. Offsets and
// codes are uint64, so a requested width can never exceed this; the guard
// exists so a future wider carrier surfaces as a structured error instead
// of silent truncation.
const maxWidth = 8

// UintVector stores unsigned integers packed at the narrowest width
// (1, 2, 4, or 8 bytes) that can represent the current maximum value.
// Appending a value that does not fit the current width migrates the
// whole buffer upward; migrations are transparent to callers.
type UintVector struct {
	width int // bytes per element
	buf   []byte
}

// NewUintVector creates a vector holding the given values, packed at the
// narrowest width that fits them.
func NewUintVector(vals ...uint64) *UintVector {
	v := &UintVector{width: 1}
	for _, x := range vals {
		// initial values fit by construction, error is impossible
		_ = v.Append(x)
	}
	return v
}

// widthFor returns the narrowest element width in bytes that can
// represent x.
func widthFor(x uint64) int {
	switch {
	case x <= 0xff:
		return 1
	case x <= 0xffff:
		return 2
	case x <= 0xffffffff:
		return 4
	default:
		return 8
	}
}

// Len returns the number of stored values.
func (v *UintVector) Len() int {
	if v.width == 0 {
		return 0
	}
	return len(v.buf) / v.width
}

// Width returns the current element width in bytes.
func (v *UintVector) Width() int {
	if v.width == 0 {
		return 1
	}
	return v.width
}

// At returns the value at position i. Callers must ensure 0 <= i < Len().
func (v *UintVector) At(i int) uint64 {
	off := i * v.width
	var x uint64
	for _, b := range v.buf[off : off+v.width] {
		x = x<<8 | uint64(b)
	}
	return x
}

// Values decodes all stored values.
func (v *UintVector) Values() []uint64 {
	out := make([]uint64, v.Len())
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}

// Append adds x, migrating the buffer to a wider encoding first if x does
// not fit the current width.
func (v *UintVector) Append(x uint64) error {
	if v.width == 0 {
		v.width = 1
	}
	if w := widthFor(x); w > v.width {
		if err := v.EnsureWidth(w); err != nil {
			return err
		}
	}
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], x)
	v.buf = append(v.buf, scratch[8-v.width:]...)
	return nil
}

// EnsureWidth migrates the vector to at least the given element width,
// rewriting every stored value. Narrowing is never performed.
func (v *UintVector) EnsureWidth(w int) error {
	if w > maxWidth {
		return colerr.Newf(colerr.ErrCategoryColumn, colerr.CodeIndexWidthOverflow,
			"cannot store values wider than %d bytes in a UintVector", maxWidth)
	}
	if v.width == 0 {
		v.width = 1
	}
	if w <= v.width {
		return nil
	}
	old := v.Values()
	v.buf = make([]byte, 0, len(old)*w)
	v.width = w
	var scratch [8]byte
	for _, x := range old {
		binary.BigEndian.PutUint64(scratch[:], x)
		v.buf = append(v.buf, scratch[8-w:]...)
	}
	return nil
}
