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

func TestLoadFile_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "default-thread", cfg.Backend.ThreadID)
	assert.Equal(t, "bolt", cfg.Storage.Driver)
	assert.Zero(t, cfg.Backend.Timeout)
}

func TestLoadFile_PartialOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: https://chat.example.com
  timeout: 90s
storage:
  driver: sqlite
  path: /tmp/chat.sqlite
`), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "default-thread", cfg.Backend.ThreadID)
	assert.Equal(t, "sqlite", cfg.StorageOptions().Driver)
	assert.Equal(t, "/tmp/chat.sqlite", cfg.StorageOptions().Path)
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Backend.Timeout = 2 * time.Minute
	cfg.Storage.Driver = "redis"
	cfg.Storage.RedisAddr = "localhost:6379"

	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestOverride(t *testing.T) {
	v := viper.New()
	v.Set("base-url", "http://backend:9000")
	v.Set("ephemeral", true)
	v.Set("log-level", "debug")
	v.Set("timeout", "15s")
	v.Set("log-format", "json")

	cfg := Default()
	cfg.Override(v)

	assert.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, Default().Log.File, cfg.Log.File)
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Storage.DSN = "postgres://bob:secret@db:5432/chat"

	out := cfg.Redacted()
	assert.Equal(t, "postgres://bob:****@db:5432/chat", out.Storage.DSN)
	assert.Equal(t, "postgres://bob:secret@db:5432/chat", cfg.Storage.DSN)
	assert.Equal(t, "postgres://db/chat", RedactDSN("postgres://db/chat"))
}
