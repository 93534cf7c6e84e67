// Package types provides core data types for Colonnade: the typed array
// model backing table columns and the selection algebra used to address
// rows within them.
package types

import "fmt"

// Kind identifies the element type of an Array.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindAny
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindAny:
		return "any"
	default:
		return "invalid"
	}
}

// KindFromString parses a kind name produced by Kind.String.
func KindFromString(s string) Kind {
	switch s {
	case "int":
		return KindInt
	case "float":
		return KindFloat
	case "string":
		return KindString
	case "bool":
		return KindBool
	case "any":
		return KindAny
	default:
		return KindInvalid
	}
}

// Array is a homogeneous, growable, one-dimensional value container.
// It is the in-memory payload of every column. Implementations are not
// safe for concurrent mutation.
type Array interface {
	// Kind returns the element kind of the array.
	Kind() Kind

	// Len returns the number of elements.
	Len() int

	// Value returns the element at position i. Callers must ensure
	// 0 <= i < Len().
	Value(i int) any

	// Values returns all elements as a fresh []any slice.
	Values() []any

	// Slice returns a copy of the half-open range [start, end).
	Slice(start, end int) Array

	// Gather returns a copy containing the elements at the given
	// positions, in the caller's order. Positions may repeat.
	Gather(idx []int) Array

	// Append adds a single element. The value must be assignable to the
	// array's kind.
	Append(v any) error

	// Extend appends all elements of other.
	Extend(other Array) error
}

// Int64Array is an Array of int64 elements.
type Int64Array struct {
	elems []int64
}

// NewInt64Array creates an Int64Array with the given initial elements.
func NewInt64Array(elems ...int64) *Int64Array {
	return &Int64Array{elems: append([]int64(nil), elems...)}
}

func (a *Int64Array) Kind() Kind    { return KindInt }
func (a *Int64Array) Len() int      { return len(a.elems) }
func (a *Int64Array) Value(i int) any { return a.elems[i] }

// Int64s returns the backing elements. The slice must not be mutated.
func (a *Int64Array) Int64s() []int64 { return a.elems }

func (a *Int64Array) Values() []any {
	out := make([]any, len(a.elems))
	for i, v := range a.elems {
		out[i] = v
	}
	return out
}

func (a *Int64Array) Slice(start, end int) Array {
	return NewInt64Array(a.elems[start:end]...)
}

func (a *Int64Array) Gather(idx []int) Array {
	out := make([]int64, len(idx))
	for i, j := range idx {
		out[i] = a.elems[j]
	}
	return &Int64Array{elems: out}
}

func (a *Int64Array) Append(v any) error {
	n, ok := asInt64(v)
	if !ok {
		return fmt.Errorf("cannot append %T to int array", v)
	}
	a.elems = append(a.elems, n)
	return nil
}

func (a *Int64Array) Extend(other Array) error {
	for i := 0; i < other.Len(); i++ {
		if err := a.Append(other.Value(i)); err != nil {
			return err
		}
	}
	return nil
}

// Float64Array is an Array of float64 elements.
type Float64Array struct {
	elems []float64
}

// NewFloat64Array creates a Float64Array with the given initial elements.
func NewFloat64Array(elems ...float64) *Float64Array {
	return &Float64Array{elems: append([]float64(nil), elems...)}
}

func (a *Float64Array) Kind() Kind      { return KindFloat }
func (a *Float64Array) Len() int        { return len(a.elems) }
func (a *Float64Array) Value(i int) any { return a.elems[i] }

func (a *Float64Array) Values() []any {
	out := make([]any, len(a.elems))
	for i, v := range a.elems {
		out[i] = v
	}
	return out
}

func (a *Float64Array) Slice(start, end int) Array {
	return NewFloat64Array(a.elems[start:end]...)
}

func (a *Float64Array) Gather(idx []int) Array {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = a.elems[j]
	}
	return &Float64Array{elems: out}
}

func (a *Float64Array) Append(v any) error {
	switch n := v.(type) {
	case float64:
		a.elems = append(a.elems, n)
	case float32:
		a.elems = append(a.elems, float64(n))
	case int:
		a.elems = append(a.elems, float64(n))
	case int64:
		a.elems = append(a.elems, float64(n))
	default:
		return fmt.Errorf("cannot append %T to float array", v)
	}
	return nil
}

func (a *Float64Array) Extend(other Array) error {
	for i := 0; i < other.Len(); i++ {
		if err := a.Append(other.Value(i)); err != nil {
			return err
		}
	}
	return nil
}

// StringArray is an Array of string elements.
type StringArray struct {
	elems []string
}

// NewStringArray creates a StringArray with the given initial elements.
func NewStringArray(elems ...string) *StringArray {
	return &StringArray{elems: append([]string(nil), elems...)}
}

func (a *StringArray) Kind() Kind      { return KindString }
func (a *StringArray) Len() int        { return len(a.elems) }
func (a *StringArray) Value(i int) any { return a.elems[i] }

// Strings returns the backing elements. The slice must not be mutated.
func (a *StringArray) Strings() []string { return a.elems }

func (a *StringArray) Values() []any {
	out := make([]any, len(a.elems))
	for i, v := range a.elems {
		out[i] = v
	}
	return out
}

func (a *StringArray) Slice(start, end int) Array {
	return NewStringArray(a.elems[start:end]...)
}

func (a *StringArray) Gather(idx []int) Array {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = a.elems[j]
	}
	return &StringArray{elems: out}
}

func (a *StringArray) Append(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("cannot append %T to string array", v)
	}
	a.elems = append(a.elems, s)
	return nil
}

func (a *StringArray) Extend(other Array) error {
	for i := 0; i < other.Len(); i++ {
		if err := a.Append(other.Value(i)); err != nil {
			return err
		}
	}
	return nil
}

// BoolArray is an Array of bool elements.
type BoolArray struct {
	elems []bool
}

// NewBoolArray creates a BoolArray with the given initial elements.
func NewBoolArray(elems ...bool) *BoolArray {
	return &BoolArray{elems: append([]bool(nil), elems...)}
}

func (a *BoolArray) Kind() Kind      { return KindBool }
func (a *BoolArray) Len() int        { return len(a.elems) }
func (a *BoolArray) Value(i int) any { return a.elems[i] }

func (a *BoolArray) Values() []any {
	out := make([]any, len(a.elems))
	for i, v := range a.elems {
		out[i] = v
	}
	return out
}

func (a *BoolArray) Slice(start, end int) Array {
	return NewBoolArray(a.elems[start:end]...)
}

func (a *BoolArray) Gather(idx []int) Array {
	out := make([]bool, len(idx))
	for i, j := range idx {
		out[i] = a.elems[j]
	}
	return &BoolArray{elems: out}
}

func (a *BoolArray) Append(v any) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("cannot append %T to bool array", v)
	}
	a.elems = append(a.elems, b)
	return nil
}

func (a *BoolArray) Extend(other Array) error {
	for i := 0; i < other.Len(); i++ {
		if err := a.Append(other.Value(i)); err != nil {
			return err
		}
	}
	return nil
}

// AnyArray is an Array of arbitrary elements. It is the fallback for
// heterogeneous payloads such as nested ragged groups before flattening.
type AnyArray struct {
	elems []any
}

// NewAnyArray creates an AnyArray with the given initial elements.
func NewAnyArray(elems ...any) *AnyArray {
	return &AnyArray{elems: append([]any(nil), elems...)}
}

func (a *AnyArray) Kind() Kind      { return KindAny }
func (a *AnyArray) Len() int        { return len(a.elems) }
func (a *AnyArray) Value(i int) any { return a.elems[i] }

func (a *AnyArray) Values() []any {
	return append([]any(nil), a.elems...)
}

func (a *AnyArray) Slice(start, end int) Array {
	return NewAnyArray(a.elems[start:end]...)
}

func (a *AnyArray) Gather(idx []int) Array {
	out := make([]any, len(idx))
	for i, j := range idx {
		out[i] = a.elems[j]
	}
	return &AnyArray{elems: out}
}

func (a *AnyArray) Append(v any) error {
	a.elems = append(a.elems, v)
	return nil
}

func (a *AnyArray) Extend(other Array) error {
	a.elems = append(a.elems, other.Values()...)
	return nil
}

// NewArray creates an empty Array of the given kind.
func NewArray(kind Kind) Array {
	switch kind {
	case KindInt:
		return &Int64Array{}
	case KindFloat:
		return &Float64Array{}
	case KindString:
		return &StringArray{}
	case KindBool:
		return &BoolArray{}
	default:
		return &AnyArray{}
	}
}

// AsArray converts a Go value to an Array. Arrays pass through unchanged;
// typed slices map to the corresponding typed array; []any infers a kind
// from its elements when they are homogeneous scalars and falls back to
// AnyArray otherwise. A nil value yields an empty AnyArray.
func AsArray(v any) (Array, error) {
	switch x := v.(type) {
	case nil:
		return &AnyArray{}, nil
	case Array:
		return x, nil
	case []int64:
		return NewInt64Array(x...), nil
	case []int:
		out := make([]int64, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return &Int64Array{elems: out}, nil
	case []uint64:
		out := make([]int64, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return &Int64Array{elems: out}, nil
	case []float64:
		return NewFloat64Array(x...), nil
	case []string:
		return NewStringArray(x...), nil
	case []bool:
		return NewBoolArray(x...), nil
	case []any:
		return fromValues(x)
	default:
		return nil, fmt.Errorf("cannot convert %T to array", v)
	}
}

// fromValues builds an Array from []any, inferring a scalar kind when all
// elements agree on one.
func fromValues(vals []any) (Array, error) {
	kind := KindInvalid
	for _, v := range vals {
		k := scalarKind(v)
		if k == KindInvalid {
			kind = KindAny
			break
		}
		if kind == KindInvalid {
			kind = k
		} else if kind != k {
			// int and float mix promotes to float
			if (kind == KindInt && k == KindFloat) || (kind == KindFloat && k == KindInt) {
				kind = KindFloat
			} else {
				kind = KindAny
				break
			}
		}
	}
	if kind == KindInvalid {
		kind = KindAny
	}
	arr := NewArray(kind)
	for _, v := range vals {
		if err := arr.Append(v); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

func scalarKind(v any) Kind {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case string:
		return KindString
	case bool:
		return KindBool
	default:
		return KindInvalid
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint:
		return int64(n), true
	default:
		return 0, false
	}
}

// AsInt64 converts any Go integer value to int64.
func AsInt64(v any) (int64, bool) { return asInt64(v) }

// CanAppend reports whether v would be accepted by a's Append, without
// mutating the array. It mirrors the acceptance rules of each kind.
func CanAppend(a Array, v any) bool {
	switch a.Kind() {
	case KindInt:
		_, ok := asInt64(v)
		return ok
	case KindFloat:
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	default:
		return true
	}
}

// Equal reports whether two arrays hold the same elements in the same
// order. Kind differences are ignored as long as the element values are
// equal under loose numeric comparison.
func Equal(a, b Array) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !ValueEqual(a.Value(i), b.Value(i)) {
			return false
		}
	}
	return true
}

// ValueEqual compares two cell values, treating all integer widths as
// equivalent and comparing nested Arrays element-wise.
func ValueEqual(a, b any) bool {
	if aa, ok := a.(Array); ok {
		if bb, ok2 := b.(Array); ok2 {
			return Equal(aa, bb)
		}
		return false
	}
	if an, ok := asFloat64(a); ok {
		if bn, ok2 := asFloat64(b); ok2 {
			return an == bn
		}
		return false
	}
	return a == b
}

// asFloat64 widens any numeric value for loose comparison.
func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if n, ok := asInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}
