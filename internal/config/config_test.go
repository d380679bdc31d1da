package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "excavator", cfg.Name)
	assert.Equal(t, 3, cfg.Queue.MaxRetries)
	assert.Equal(t, 50000, cfg.Correlation.MaxEntities)
	assert.Equal(t, 500, cfg.Correlation.MaxPairsPerFile)
	assert.Equal(t, 1000000, cfg.Correlation.MaxTotalPairs)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Catalog.DatabasePath, cfg.Catalog.DatabasePath)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excavator.yaml")
	cfg := DefaultConfig()
	cfg.ControlPlane.ListenAddr = "127.0.0.1:9999"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", loaded.ControlPlane.ListenAddr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EXCAVATOR_LISTEN_ADDR", "0.0.0.0:1234")
	t.Setenv("EXCAVATOR_DEBUG", "true")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "0.0.0.0:1234", cfg.ControlPlane.ListenAddr)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestLoggingCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{DebugMode: false}
	assert.False(t, lc.IsCategoryEnabled("catalog"))

	lc = LoggingConfig{DebugMode: true, Categories: map[string]bool{"catalog": false}}
	assert.False(t, lc.IsCategoryEnabled("catalog"))
	assert.True(t, lc.IsCategoryEnabled("queue"))
}

func TestConfigSaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "excavator.yaml")
	cfg := DefaultConfig()
	require.NoError(t, cfg.Save(path))
	_, err := os.Stat(path)
	require.NoError(t, err)
}
