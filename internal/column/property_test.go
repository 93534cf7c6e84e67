package column

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/colonnade/colonnade/pkg/types"
)

// TestProperty_UintVectorMigration validates that width migration is
// transparent: any append sequence decodes to exactly the values that
// were appended, at the narrowest width fitting the maximum.
func TestProperty_UintVectorMigration(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("appended values survive width migration", prop.ForAll(
		func(vals []uint64) bool {
			v := NewUintVector()
			max := uint64(0)
			for _, x := range vals {
				if err := v.Append(x); err != nil {
					return false
				}
				if x > max {
					max = x
				}
			}
			if v.Len() != len(vals) {
				return false
			}
			for i, x := range vals {
				if v.At(i) != x {
					return false
				}
			}
			return len(vals) == 0 || v.Width() == widthFor(max)
		},
		gen.SliceOf(gen.UInt64Range(0, 1<<34)),
	))

	properties.TestingRun(t)
}

// TestProperty_RaggedRoundTrip validates that any list of groups added
// through a VectorIndex comes back group by group unchanged.
func TestProperty_RaggedRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("groups round-trip through the index", prop.ForAll(
		func(groups [][]int64) bool {
			target, err := NewVectorData("col", "data", nil)
			if err != nil {
				return false
			}
			ix, err := NewVectorIndex("col_index", nil, target)
			if err != nil {
				return false
			}
			for _, g := range groups {
				if err := ix.AddVector(g); err != nil {
					return false
				}
			}
			if ix.Len() != len(groups) {
				return false
			}
			for i, g := range groups {
				got, err := ix.Get(types.At(i))
				if err != nil {
					return false
				}
				arr, ok := got.(types.Array)
				if !ok || arr.Len() != len(g) {
					return false
				}
				for j, want := range g {
					v, ok := types.AsInt64(arr.Value(j))
					if !ok || v != want {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.SliceOf(gen.Int64Range(-1000, 1000))),
	))

	properties.TestingRun(t)
}
