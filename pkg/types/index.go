package types

import "fmt"

// Index selects rows within an Array or column. It is a closed set:
// At (single row), Span (half-open range), List (explicit positions),
// and Mask (boolean selection).
type Index interface {
	isIndex()
}

// At selects the single row at the given position.
type At int

// Span selects the half-open range [Start, End). A negative End means
// "through the last row".
type Span struct {
	Start int
	End   int
}

// List selects the given positions in the given order. Positions may
// repeat.
type List []int

// Mask selects the positions whose flag is true. The mask length must
// equal the length of the addressed column.
type Mask []bool

func (At) isIndex()   {}
func (Span) isIndex() {}
func (List) isIndex() {}
func (Mask) isIndex() {}

// Positions resolves a non-scalar Index against a container of length n
// to an explicit position list. Boolean masks are normalized to their
// true positions; spans are clamped to [0, n). Calling Positions with an
// At index is an error; scalar selection takes a separate path.
func Positions(ix Index, n int) ([]int, error) {
	switch sel := ix.(type) {
	case Span:
		start, end := sel.Start, sel.End
		if end < 0 || end > n {
			end = n
		}
		if start < 0 {
			start = 0
		}
		if start > end {
			start = end
		}
		out := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			out = append(out, i)
		}
		return out, nil
	case List:
		return append([]int(nil), sel...), nil
	case Mask:
		if len(sel) != n {
			return nil, fmt.Errorf("mask length %d does not match length %d", len(sel), n)
		}
		var out []int
		for i, keep := range sel {
			if keep {
				out = append(out, i)
			}
		}
		return out, nil
	case At:
		return nil, fmt.Errorf("scalar index cannot be resolved to positions")
	default:
		return nil, fmt.Errorf("unsupported index type %T", ix)
	}
}

// IsScalar reports whether the index selects a single row.
func IsScalar(ix Index) bool {
	_, ok := ix.(At)
	return ok
}
