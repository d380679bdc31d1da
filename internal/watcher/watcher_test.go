package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/queue"
)

func newTestWatcher(t *testing.T, roots []string) (*Watcher, *queue.Queue, *catalog.Store) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "w.db"), "5s")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	q, err := queue.New(store, 3, 256, 64)
	require.NoError(t, err)

	w, err := New(store, q, Config{
		Roots:              roots,
		DebounceWindow:     50 * time.Millisecond,
		IgnoreHidden:       true,
		IgnoreVCS:          true,
		ExtensionBlocklist: map[string]bool{".bin": true},
	})
	require.NoError(t, err)
	return w, q, store
}

func TestWatcherEnqueuesOnCreate(t *testing.T) {
	root := t.TempDir()
	w, q, _ := newTestWatcher(t, []string{root})
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(root, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	require.Eventually(t, func() bool {
		stats, err := q.Stats()
		return err == nil && stats.Pending >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcherIgnoresBlockedExtension(t *testing.T) {
	root := t.TempDir()
	w, q, _ := newTestWatcher(t, []string{root})
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "bin.bin"), []byte{0x00}, 0644))
	time.Sleep(200 * time.Millisecond)

	stats, err := q.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Pending)
}

func TestWatcherSoftDeleteOnRemove(t *testing.T) {
	root := t.TempDir()
	w, _, store := newTestWatcher(t, []string{root})
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(root, "gone.md")
	_, err := store.UpsertFile(catalog.FileRecord{ID: "gone-id", Path: path, Status: catalog.FileIndexed})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		f, err := store.GetFileByID("gone-id")
		return err == nil && f.Status == catalog.FileSkipped
	}, 2*time.Second, 20*time.Millisecond)
}
