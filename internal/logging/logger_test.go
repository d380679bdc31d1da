package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureProductionModeIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Configure(dir, false, nil, "info", false))
	assert.False(t, IsDebugMode())

	logsDirPath := filepath.Join(dir, "logs")
	_, err := filepath.Glob(logsDirPath)
	require.NoError(t, err)
}

func TestConfigureDebugModeCreatesLogger(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Configure(dir, true, nil, "debug", false))
	assert.True(t, IsDebugMode())
	assert.True(t, IsCategoryEnabled(CategoryQueue))

	l := Get(CategoryQueue)
	l.Info("test message %d", 1)
	CloseAll()
}

func TestCategoryDisabledViaConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Configure(dir, true, map[string]bool{"watcher": false}, "info", false))
	assert.False(t, IsCategoryEnabled(CategoryWatcher))
	assert.True(t, IsCategoryEnabled(CategoryCatalog))
	CloseAll()
}

func TestTimerStop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Configure(dir, true, nil, "debug", false))
	timer := StartTimer(CategoryOperation, "test-op")
	elapsed := timer.Stop()
	assert.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))
	CloseAll()
}
