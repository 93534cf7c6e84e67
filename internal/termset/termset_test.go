package termset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidate tests membership checks, including non-string values.
func TestValidate(t *testing.T) {
	ts := New("species", "Homo sapiens", "Mus musculus")

	assert.True(t, ts.Validate("Homo sapiens"))
	assert.False(t, ts.Validate("Rattus norvegicus"))

	// Non-strings are compared by their printed form
	nums := New("codes", "1", "2")
	assert.True(t, nums.Validate(1))
	assert.False(t, nums.Validate(3))
}

// TestLoad tests loading a vocabulary from a YAML document.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "species.yaml")
	doc := "name: species\nterms:\n  - Homo sapiens\n  - Mus musculus\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	ts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "species", ts.Name())
	assert.Equal(t, []string{"Homo sapiens", "Mus musculus"}, ts.Terms())
	assert.True(t, ts.Validate("Mus musculus"))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
