package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaults verifies the default configuration validates after
// resolution.
func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(cfg.DataDir, "storage"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(cfg.DataDir, "catalog.db"), cfg.CatalogPath())
}

// TestValidate verifies the rejection cases.
func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Type = "ftp"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Storage.Type = "s3"
	require.Error(t, cfg.Validate())

	cfg.Storage.S3.Bucket = "snapshots"
	require.NoError(t, cfg.Validate())
}

// TestLoadFromFile verifies YAML configuration overrides defaults.
func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colonnade.yaml")
	doc := `
data_dir: /var/lib/colonnade
storage:
  type: s3
  s3:
    bucket: snapshots
    region: eu-west-1
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/colonnade", cfg.DataDir)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	assert.Equal(t, "tables/", cfg.Storage.Prefix)
}

// TestLoadFromEnv verifies environment variables override file values.
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("COLONNADE_STORAGE_TYPE", "s3")
	t.Setenv("COLONNADE_S3_BUCKET", "env-bucket")
	t.Setenv("COLONNADE_S3_PATH_STYLE", "1")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "env-bucket", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.UsePathStyle)
}
