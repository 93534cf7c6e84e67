package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/termset"
	"github.com/colonnade/colonnade/pkg/types"
)

// TestVectorData tests basic append and selection.
func TestVectorData(t *testing.T) {
	v, err := NewVectorData("col", "a test column", types.NewStringArray("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "a test column", v.Description())
	assert.Equal(t, 2, v.Len())

	require.NoError(t, v.AddRow("c"))
	got, err := v.Get(types.At(2))
	require.NoError(t, err)
	assert.Equal(t, "c", got)

	got, err = v.Get(types.List{0, 2})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "c"}, got.(types.Array).Values())

	_, err = v.Get(types.At(3))
	require.Error(t, err)
	assert.Equal(t, colerr.CodeRowIndexOutOfRange, colerr.GetCode(err))
}

// TestVectorDataTermSet tests vocabulary enforcement on append.
func TestVectorDataTermSet(t *testing.T) {
	ts := termset.New("species", "Homo sapiens", "Mus musculus")
	v, err := NewVectorData("species", "observed species", nil, WithTermSet(ts))
	require.NoError(t, err)

	require.NoError(t, v.AddRow("Homo sapiens"))
	err = v.AddRow("Rattus norvegicus")
	require.Error(t, err)
	assert.Equal(t, colerr.CodeTermSetRejected, colerr.GetCode(err))
	assert.Equal(t, 1, v.Len())
}

// TestVectorIndex tests ragged grouping over a flat target.
func TestVectorIndex(t *testing.T) {
	target, err := NewVectorData("col", "data", nil)
	require.NoError(t, err)
	ix, err := NewVectorIndex("col_index", nil, target)
	require.NoError(t, err)
	assert.Equal(t, "Index for VectorData 'col'", ix.Description())

	require.NoError(t, ix.AddVector([]string{"a", "b"}))
	require.NoError(t, ix.AddVector([]string{}))
	require.NoError(t, ix.AddVector([]string{"c", "d", "e"}))

	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, 5, target.Len())
	assert.Equal(t, []uint64{2, 2, 5}, ix.Offsets())

	g, err := ix.Get(types.At(0))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, g.(types.Array).Values())

	g, err = ix.Get(types.At(1))
	require.NoError(t, err)
	assert.Equal(t, 0, g.(types.Array).Len())

	g, err = ix.Get(types.Span{Start: 1, End: 3})
	require.NoError(t, err)
	groups := g.(types.Array)
	assert.Equal(t, 2, groups.Len())
	assert.Equal(t, []any{"c", "d", "e"}, groups.Value(1).(types.Array).Values())

	_, err = ix.Get(types.At(3))
	require.Error(t, err)
	assert.Equal(t, colerr.CodeRowIndexOutOfRange, colerr.GetCode(err))
}

// TestVectorIndexNested tests a two-level index chain.
func TestVectorIndexNested(t *testing.T) {
	target, err := NewVectorData("col", "data", nil)
	require.NoError(t, err)
	inner, err := NewVectorIndex("col_index", nil, target)
	require.NoError(t, err)
	outer, err := NewVectorIndex("col_index_index", nil, inner)
	require.NoError(t, err)

	require.NoError(t, outer.AddVector([]any{
		[]int64{1}, []int64{2, 3},
	}))
	require.NoError(t, outer.AddVector([]any{
		[]int64{4},
	}))

	assert.Equal(t, 2, outer.Len())
	assert.Equal(t, 3, inner.Len())
	assert.Equal(t, 4, target.Len())
	assert.Equal(t, []uint64{2, 3}, outer.Offsets())
	assert.Equal(t, []uint64{1, 3, 4}, inner.Offsets())

	g, err := outer.Get(types.At(0))
	require.NoError(t, err)
	groups := g.(types.Array)
	require.Equal(t, 2, groups.Len())
	assert.Equal(t, []any{int64(2), int64(3)}, groups.Value(1).(types.Array).Values())
}

// TestVectorIndexWidthMigration tests that offsets stay correct when
// the target grows past a width boundary.
func TestVectorIndexWidthMigration(t *testing.T) {
	target, err := NewVectorData("col", "data", nil)
	require.NoError(t, err)
	ix, err := NewVectorIndex("col_index", nil, target)
	require.NoError(t, err)

	// 100 groups of 3 elements push the end offsets past 255
	for g := 0; g < 100; g++ {
		require.NoError(t, ix.AddVector([]int64{0, 1, 2}))
	}
	assert.Equal(t, 2, ix.OffsetWidth())
	offs := ix.Offsets()
	assert.Equal(t, uint64(3), offs[0])
	assert.Equal(t, uint64(300), offs[99])

	g, err := ix.Get(types.At(99))
	require.NoError(t, err)
	assert.Equal(t, 3, g.(types.Array).Len())
}

// TestElementIdentifiers tests id search ordering semantics.
func TestElementIdentifiers(t *testing.T) {
	e, err := NewElementIdentifiers("id", 1, 2, 3)
	require.NoError(t, err)

	assert.True(t, e.Contains(2))
	assert.False(t, e.Contains(9))

	// Positions come back in ascending position order regardless of the
	// requested order, and absent ids contribute nothing
	assert.Equal(t, []int{0, 2}, e.Search([]int64{3, 1, 5}))
	assert.Empty(t, e.Search([]int64{9}))

	id, err := e.ID(2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	_, err = e.ID(3)
	require.Error(t, err)
	assert.Equal(t, colerr.CodeRowIndexOutOfRange, colerr.GetCode(err))
}

// TestEnumData tests dictionary encoding round-trips.
func TestEnumData(t *testing.T) {
	e, err := NewEnumData("cond", "experimental condition", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "cond_elements", e.Elements().Name())

	for _, v := range []string{"a", "b", "a", "c"} {
		require.NoError(t, e.AddRow(v))
	}
	assert.Equal(t, []uint64{0, 1, 0, 2}, e.Codes())
	assert.Equal(t, []any{"a", "b", "c"}, e.Elements().Array().Values())

	got, err := e.Get(types.At(2))
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	got, err = e.Get(types.Span{Start: 0, End: 4})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "a", "c"}, got.(types.Array).Values())

	raw, err := e.GetCodes(types.At(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), raw)
}

// TestEnumDataWidth tests that code width tracks dictionary size.
func TestEnumDataWidth(t *testing.T) {
	e, err := NewEnumData("big", "many terms", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, e.CodeWidth())

	// 300 distinct terms force 2-byte codes; earlier codes must survive
	for i := 0; i < 300; i++ {
		require.NoError(t, e.AddRow(i))
	}
	assert.Equal(t, 2, e.CodeWidth())
	codes := e.Codes()
	assert.Equal(t, uint64(0), codes[0])
	assert.Equal(t, uint64(299), codes[299])

	got, err := e.Get(types.At(0))
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

// TestEnumDataAddCode tests the raw code path.
func TestEnumDataAddCode(t *testing.T) {
	elements, err := NewVectorData("cond_elements", "dictionary", types.NewStringArray("x", "y"))
	require.NoError(t, err)
	e, err := NewEnumData("cond", "condition", []uint64{0, 1}, elements)
	require.NoError(t, err)

	require.NoError(t, e.AddCode(1))
	err = e.AddCode(2)
	require.Error(t, err)
	assert.Equal(t, colerr.CodeInvalidData, colerr.GetCode(err))

	got, err := e.Get(types.At(2))
	require.NoError(t, err)
	assert.Equal(t, "y", got)
}
