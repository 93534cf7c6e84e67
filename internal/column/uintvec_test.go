package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	colerr "github.com/colonnade/colonnade/internal/errors"
)

// TestUintVectorWidths tests that the narrowest fitting width is chosen.
func TestUintVectorWidths(t *testing.T) {
	cases := []struct {
		val   uint64
		width int
	}{
		{0, 1},
		{255, 1},
		{256, 2},
		{65535, 2},
		{65536, 4},
		{1 << 32, 8},
	}
	for _, tc := range cases {
		v := NewUintVector(tc.val)
		assert.Equal(t, tc.width, v.Width(), "value %d", tc.val)
		assert.Equal(t, tc.val, v.At(0))
	}
}

// TestUintVectorMigration tests that appending a wide value rewrites
// existing narrow values without changing them.
func TestUintVectorMigration(t *testing.T) {
	v := NewUintVector()
	for i := uint64(0); i < 10; i++ {
		require.NoError(t, v.Append(i))
	}
	assert.Equal(t, 1, v.Width())

	require.NoError(t, v.Append(300))
	assert.Equal(t, 2, v.Width())
	require.NoError(t, v.Append(70000))
	assert.Equal(t, 4, v.Width())

	want := []uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 300, 70000}
	assert.Equal(t, want, v.Values())
	assert.Equal(t, 12, v.Len())
}

// TestUintVectorBoundaries tests the exact 255/256 and 65535/65536
// migration boundaries.
func TestUintVectorBoundaries(t *testing.T) {
	v := NewUintVector(255)
	assert.Equal(t, 1, v.Width())
	require.NoError(t, v.Append(256))
	assert.Equal(t, 2, v.Width())
	assert.Equal(t, []uint64{255, 256}, v.Values())

	require.NoError(t, v.Append(65535))
	assert.Equal(t, 2, v.Width())
	require.NoError(t, v.Append(65536))
	assert.Equal(t, 4, v.Width())
	assert.Equal(t, []uint64{255, 256, 65535, 65536}, v.Values())
}

// TestEnsureWidth tests explicit migration and the overflow guard.
func TestEnsureWidth(t *testing.T) {
	v := NewUintVector(1, 2, 3)
	require.NoError(t, v.EnsureWidth(4))
	assert.Equal(t, 4, v.Width())
	assert.Equal(t, []uint64{1, 2, 3}, v.Values())

	// Narrowing is a no-op
	require.NoError(t, v.EnsureWidth(1))
	assert.Equal(t, 4, v.Width())

	err := v.EnsureWidth(16)
	require.Error(t, err)
	assert.Equal(t, colerr.CodeIndexWidthOverflow, colerr.GetCode(err))
}
