package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jive.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(10*1024*1024), cfg.Buffer.MmapThreshold)
	assert.Equal(t, 1000, cfg.Buffer.CacheLines)
	assert.Equal(t, 100, cfg.Buffer.OverlayLimit)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[buffer]
mmap_threshold = 1048576
cache_lines = 50

[log]
level = "debug"
path = "/tmp/jive.log"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(1048576), cfg.Buffer.MmapThreshold)
	assert.Equal(t, 50, cfg.Buffer.CacheLines)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/jive.log", cfg.Log.Path)

	// Unset sections keep their defaults.
	assert.Equal(t, 100, cfg.Buffer.OverlayLimit)
	assert.Equal(t, 256*1024, cfg.Save.WriterSize)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, `buffer = "not a table`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.Buffer.MmapThreshold = 0 }},
		{"negative cache", func(c *Config) { c.Buffer.CacheLines = -1 }},
		{"zero overlay limit", func(c *Config) { c.Buffer.OverlayLimit = 0 }},
		{"zero writer size", func(c *Config) { c.Save.WriterSize = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
