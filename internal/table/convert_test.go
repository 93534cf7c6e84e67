package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	colerr "github.com/colonnade/colonnade/internal/errors"
)

// TestToFrameRoundTrip tests that a table survives frame conversion,
// raggedness included.
func TestToFrameRoundTrip(t *testing.T) {
	tbl := newTable(t, WithIDs(0, 1, 2))
	require.NoError(t, tbl.AddColumn("a", "col a", WithData([]int64{1, 2, 3})))
	require.NoError(t, tbl.AddColumn("s", "ragged col",
		WithData([]any{[]string{"x", "y"}, []string{}, []string{"z"}}),
		WithIndex()))

	f, err := tbl.ToFrame()
	require.NoError(t, err)
	assert.Equal(t, 3, f.NumRows())
	assert.Equal(t, []string{"a", "s"}, f.Colnames)

	back, err := FromFrame("trials", "a table of trials", f)
	require.NoError(t, err)
	assert.True(t, back.IsRagged("s"))
	assert.True(t, tbl.ContentEquals(back))
}

// TestFromFrameOptions tests sourcing ids from a frame column and
// attaching per-column descriptions.
func TestFromFrameOptions(t *testing.T) {
	f := &Frame{
		Colnames: []string{"trial", "a"},
		Cells: map[string][]any{
			"trial": {int64(10), int64(20)},
			"a":     {int64(1), int64(2)},
		},
		IDs: []int64{0, 1},
	}

	tbl, err := FromFrame("trials", "a table of trials", f,
		WithIndexColumn("trial"),
		WithDescriptions(map[string]string{"a": "col a"}))
	require.NoError(t, err)

	assert.Equal(t, []int64{10, 20}, tbl.IDs().Int64s())
	assert.Equal(t, []string{"a"}, tbl.Colnames())
	c, err := tbl.Column("a")
	require.NoError(t, err)
	assert.Equal(t, "col a", c.Description())
}

// TestFromFrameBadIndexColumn tests rejection of unusable index
// columns.
func TestFromFrameBadIndexColumn(t *testing.T) {
	f := &Frame{
		Colnames: []string{"a"},
		Cells:    map[string][]any{"a": {int64(1)}},
		IDs:      []int64{0},
	}

	_, err := FromFrame("trials", "a table of trials", f, WithIndexColumn("nope"))
	require.Error(t, err)
	assert.Equal(t, colerr.CodeUnknownColumn, colerr.GetCode(err))

	f.Cells["a"] = []any{"not an id"}
	_, err = FromFrame("trials", "a table of trials", f, WithIndexColumn("a"))
	require.Error(t, err)
	assert.Equal(t, colerr.CodeInvalidData, colerr.GetCode(err))
}

// TestToFrameExclude tests column exclusion.
func TestToFrameExclude(t *testing.T) {
	tbl := newTable(t, WithIDs(0, 1))
	require.NoError(t, tbl.AddColumn("a", "col a", WithData([]int64{1, 2})))
	require.NoError(t, tbl.AddColumn("b", "col b", WithData([]int64{3, 4})))

	f, err := tbl.ToFrame(ExcludeColumns("a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, f.Colnames)
}

// TestToFrameEmpty tests an empty table.
func TestToFrameEmpty(t *testing.T) {
	tbl := newTable(t)
	require.NoError(t, tbl.AddColumn("a", "col a"))

	f, err := tbl.ToFrame()
	require.NoError(t, err)
	assert.Equal(t, 0, f.NumRows())
	assert.Equal(t, []string{"a"}, f.Colnames)
}

// TestContentEquals tests that equality follows content, not identity.
func TestContentEquals(t *testing.T) {
	a := newTable(t, WithIDs(0, 1))
	require.NoError(t, a.AddColumn("x", "col x", WithData([]int64{1, 2})))
	b := newTable(t, WithIDs(0, 1))
	require.NoError(t, b.AddColumn("x", "col x", WithData([]int64{1, 2})))

	assert.True(t, a.ContentEquals(b))
	assert.NotEqual(t, a.ObjectID(), b.ObjectID())

	require.NoError(t, b.AddRow(map[string]any{"x": int64(3)}))
	assert.False(t, a.ContentEquals(b))
}

// TestCopy tests that a copy shares columns but not identity.
func TestCopy(t *testing.T) {
	tbl := newTable(t, WithIDs(0, 1))
	require.NoError(t, tbl.AddColumn("a", "col a", WithData([]int64{1, 2})))

	cp, err := tbl.Copy()
	require.NoError(t, err)
	assert.True(t, tbl.ContentEquals(cp))
	assert.NotEqual(t, tbl.ObjectID(), cp.ObjectID())

	// Columns stay owned by the original
	c, err := cp.Column("a")
	require.NoError(t, err)
	assert.Same(t, tbl, c.Parent())
}
