package daemon

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.StateDir = dir
	cfg.Catalog.DatabasePath = filepath.Join(dir, "excavator.db")
	cfg.Watcher.Roots = []string{t.TempDir()}
	cfg.ControlPlane.ListenAddr = "127.0.0.1:0"
	cfg.ControlPlane.ShutdownGraceS = 2
	return cfg
}

func TestNewWiresEverySubsystemInOrder(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, d.catalog)
	require.NotNil(t, d.vector)
	require.NotNil(t, d.queue)
	require.NotNil(t, d.watcher)
	require.NotNil(t, d.control)
	require.NoError(t, d.catalog.Close())
	require.NoError(t, d.lock.Unlock())
}

func TestSecondInstanceRefusesToStart(t *testing.T) {
	cfg := testConfig(t)
	d1, err := New(cfg)
	require.NoError(t, err)
	defer func() {
		d1.catalog.Close()
		d1.lock.Unlock()
	}()

	_, err = New(cfg)
	assert.Error(t, err, "a second instance must not acquire the same lock")
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not shut down after context cancellation")
	}
}

func TestRequestShutdownStopsRunTwice(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(cfg)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		d.requestShutdown()
		d.requestShutdown() // must not panic on double-close
	}()

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not shut down after requestShutdown")
	}
}
