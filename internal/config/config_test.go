package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "moove", cfg.Theme.Name)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, int64(1), cfg.Theme.SystemContextID)
	assert.True(t, cfg.H5P.AlterStyles)
	assert.True(t, cfg.H5P.AlterScripts)
	assert.Equal(t, cfg.Theme.WWWRoot, cfg.Theme.HTTPSWWWRoot)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
theme:
  name: classic
  wwwroot: "https://lms.example.com/"
  httpswwwroot: "https://secure.example.com/"
store:
  driver: etcd
h5p:
  alter_scripts: false
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("MOOVE_STORE_DRIVER", "redis")

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, "classic", cfg.Theme.Name)
	assert.Equal(t, "https://lms.example.com", cfg.Theme.WWWRoot)
	assert.Equal(t, "https://secure.example.com", cfg.Theme.HTTPSWWWRoot)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.False(t, cfg.H5P.AlterScripts)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [oops"), 0o600))

	_, err := load(viper.New(), dir)
	assert.Error(t, err)
}
