package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_ttl: 1h30m
max_size: 250
enable_persistence: true
background_refresh_interval: 45s
`), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.DefaultTTL)
	assert.Equal(t, 250, cfg.MaxSize)
	assert.True(t, cfg.EnablePersistence)
	assert.Equal(t, 45*time.Second, cfg.BackgroundRefreshInterval)
}

func TestLoadConfigFilePartialFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_size: 10\n"), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxSize)
	assert.Equal(t, DefaultTTL, cfg.DefaultTTL)
	assert.Equal(t, DefaultRefreshInterval, cfg.BackgroundRefreshInterval)
}

func TestLoadConfigFileBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_ttl: soon\n"), 0o644))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CHURNVISION_CACHE_TTL", "10m")
	t.Setenv("CHURNVISION_CACHE_MAX_SIZE", "42")
	t.Setenv("CHURNVISION_CACHE_PERSIST", "true")
	t.Setenv("CHURNVISION_CACHE_REFRESH_INTERVAL", "90s")

	cfg := ConfigFromEnv()
	assert.Equal(t, 10*time.Minute, cfg.DefaultTTL)
	assert.Equal(t, 42, cfg.MaxSize)
	assert.True(t, cfg.EnablePersistence)
	assert.Equal(t, 90*time.Second, cfg.BackgroundRefreshInterval)
}

func TestConfigFromEnvMalformedValuesUseDefaults(t *testing.T) {
	t.Setenv("CHURNVISION_CACHE_TTL", "whenever")
	t.Setenv("CHURNVISION_CACHE_MAX_SIZE", "lots")
	t.Setenv("CHURNVISION_CACHE_PERSIST", "")
	t.Setenv("CHURNVISION_CACHE_REFRESH_INTERVAL", "")

	cfg := ConfigFromEnv()
	assert.Equal(t, DefaultTTL, cfg.DefaultTTL)
	assert.Equal(t, DefaultMaxSize, cfg.MaxSize)
	assert.False(t, cfg.EnablePersistence)
	assert.Equal(t, DefaultRefreshInterval, cfg.BackgroundRefreshInterval)
}
