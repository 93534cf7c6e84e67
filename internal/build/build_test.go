package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/table"
)

func sampleTable(t *testing.T) *table.DynamicTable {
	t.Helper()
	tbl, err := table.NewDynamicTable("trials", "a table of trials", table.WithIDs(0, 1, 2))
	require.NoError(t, err)
	require.NoError(t, tbl.AddColumn("score", "trial score",
		table.WithData([]float64{0.5, 1.5, 2.5})))
	require.NoError(t, tbl.AddColumn("spikes", "spike times",
		table.WithData([]any{[]int64{1, 2}, []int64{}, []int64{3}}),
		table.WithIndex()))
	require.NoError(t, tbl.AddColumn("cond", "condition",
		table.WithData([]string{"a", "b", "a"}), table.AsEnum()))
	return tbl
}

// TestGroupBuilder tests child management and duplicate rejection.
func TestGroupBuilder(t *testing.T) {
	g := NewGroupBuilder("root")
	require.NoError(t, g.AddDataset(NewDatasetBuilder("a", "int", []any{int64(1)})))
	require.NoError(t, g.AddGroup(NewGroupBuilder("sub")))

	assert.NotNil(t, g.Dataset("a"))
	assert.NotNil(t, g.Group("sub"))
	assert.Nil(t, g.Dataset("missing"))

	err := g.AddDataset(NewDatasetBuilder("a", "int", nil))
	require.Error(t, err)
	err = g.AddGroup(NewGroupBuilder("a"))
	require.Error(t, err)
}

// TestBuildTable tests the builder tree shape for a mixed table.
func TestBuildTable(t *testing.T) {
	tbl := sampleTable(t)
	g, err := BuildTable(tbl)
	require.NoError(t, err)

	assert.Equal(t, "trials", g.Name)
	assert.Equal(t, TypeDynamicTable, g.Attr(attrDataType))
	assert.Equal(t, []string{"score", "spikes", "cond"}, g.Attributes[attrColnames])

	require.NotNil(t, g.Dataset("id"))
	assert.Equal(t, TypeElementIdentifiers, g.Dataset("id").Attr(attrDataType))

	ix := g.Dataset("spikes_index")
	require.NotNil(t, ix)
	assert.Equal(t, TypeVectorIndex, ix.Attr(attrDataType))
	assert.Equal(t, "spikes", ix.Attr(attrTarget))

	enum := g.Dataset("cond")
	require.NotNil(t, enum)
	assert.Equal(t, "cond_elements", enum.Attr(attrElements))
	require.NotNil(t, g.Dataset("cond_elements"))
}

// TestReconstructRoundTrip tests table -> tree -> JSON -> tree -> table.
func TestReconstructRoundTrip(t *testing.T) {
	tbl := sampleTable(t)
	g, err := BuildTable(tbl)
	require.NoError(t, err)

	raw, err := EncodeJSON(g)
	require.NoError(t, err)
	decoded, err := DecodeJSON(raw)
	require.NoError(t, err)

	back, err := ReconstructTable(decoded, DefaultTypeMap())
	require.NoError(t, err)

	assert.True(t, tbl.ContentEquals(back))
	assert.Equal(t, tbl.ObjectID(), back.ObjectID())
	assert.False(t, back.Modified())
	assert.True(t, back.IsRagged("spikes"))
}

// TestReconstructRegion tests region columns resolved against external
// tables.
func TestReconstructRegion(t *testing.T) {
	units, err := table.NewDynamicTable("units", "units", table.WithIDs(0, 1, 2))
	require.NoError(t, err)
	require.NoError(t, units.AddColumn("label", "unit label",
		table.WithData([]string{"u0", "u1", "u2"})))

	trials, err := table.NewDynamicTable("trials", "trials", table.WithIDs(0, 1))
	require.NoError(t, err)
	require.NoError(t, trials.AddColumn("unit", "which unit",
		table.WithData([]int64{2, 0}), table.AsRegion(units)))

	g, err := BuildTable(trials)
	require.NoError(t, err)
	raw, err := EncodeJSON(g)
	require.NoError(t, err)
	decoded, err := DecodeJSON(raw)
	require.NoError(t, err)

	back, err := ReconstructTable(decoded, DefaultTypeMap(),
		WithTables(map[string]*table.DynamicTable{"units": units}))
	require.NoError(t, err)

	c, err := back.Column("unit")
	require.NoError(t, err)
	r := c.(*table.DynamicTableRegion)
	assert.Same(t, units, r.Table())
	assert.Equal(t, []int64{2, 0}, r.Positions())

	// Without the external table the positions survive unresolved
	back2, err := ReconstructTable(decoded, DefaultTypeMap())
	require.NoError(t, err)
	c2, err := back2.Column("unit")
	require.NoError(t, err)
	assert.Nil(t, c2.(*table.DynamicTableRegion).Table())
}

// TestTypeMap tests registry semantics.
func TestTypeMap(t *testing.T) {
	tm := NewTypeMap()
	require.NoError(t, tm.Register("X", reconstructVectorData))
	err := tm.Register("X", reconstructVectorData)
	require.Error(t, err)
	assert.Equal(t, colerr.CodeAlreadySet, colerr.GetCode(err))

	_, err = tm.Get("Y")
	require.Error(t, err)
}
