// Package watcher recursively watches configured root paths and produces
// FILE_EXTRACTION jobs on create/modify, soft-deleting on remove. Grounded
// on the teacher's fsnotify + debounce-map design, generalized from a
// single flat directory to arbitrary recursive trees.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/logging"
	"github.com/excavator/excavator/internal/queue"
)

// Config controls watcher behavior.
type Config struct {
	Roots              []string
	DebounceWindow     time.Duration
	IgnoreHidden       bool
	IgnoreVCS          bool
	ExtensionBlocklist map[string]bool
	MaxFileSize        int64
}

var vcsDirNames = map[string]bool{".git": true, ".hg": true, ".svn": true}

// Watcher bridges OS filesystem notifications (a background thread) to the
// durable job queue (cooperative scheduling) via a thread-safe debounce map
// drained by a single ticker goroutine -- never creating queue work
// directly from the fsnotify callback goroutine.
type Watcher struct {
	fsw    *fsnotify.Watcher
	store  *catalog.Store
	q      *queue.Queue
	cfg    Config

	mu          sync.Mutex
	debounce    map[string]time.Time
	visitedInodes map[uint64]bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a Watcher. Call Start to begin watching.
func New(store *catalog.Store, q *queue.Queue, cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = 500 * time.Millisecond
	}
	return &Watcher{
		fsw:           fsw,
		store:         store,
		q:             q,
		cfg:           cfg,
		debounce:      make(map[string]time.Time),
		visitedInodes: make(map[uint64]bool),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}, nil
}

// Start registers every configured root and begins the event loop in a
// background goroutine. Registration failure on one root is logged and the
// remaining roots are still attempted.
func (w *Watcher) Start() error {
	for _, root := range w.cfg.Roots {
		if err := w.addRecursive(root); err != nil {
			logging.WatcherError("failed to watch root %s: %v (continuing with remaining roots)", root, err)
		}
	}
	go w.run()
	return nil
}

// Stop halts the event loop and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	if err := w.fsw.Close(); err != nil {
		logging.WatcherError("error closing watcher: %v", err)
	}
}

// addRecursive walks root and calls fsw.Add on every directory, breaking
// symlink loops via a visited-inode set -- an addition over the teacher's
// flat single-directory watcher, required for arbitrary recursive trees.
func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logging.WatcherDebug("walk error at %s: %v", path, err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		name := filepath.Base(path)
		if w.cfg.IgnoreHidden && strings.HasPrefix(name, ".") && path != root {
			return filepath.SkipDir
		}
		if w.cfg.IgnoreVCS && vcsDirNames[name] {
			return filepath.SkipDir
		}

		if ino, ok := inodeOf(info); ok {
			w.mu.Lock()
			seen := w.visitedInodes[ino]
			if !seen {
				w.visitedInodes[ino] = true
			}
			w.mu.Unlock()
			if seen {
				return filepath.SkipDir
			}
		}

		if err := w.fsw.Add(path); err != nil {
			logging.WatcherDebug("failed to add watch for %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.cfg.DebounceWindow / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.WatcherError("fsnotify error: %v", err)
		case <-ticker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.shouldIgnore(event.Name) {
		return
	}

	if event.Op&fsnotify.Remove != 0 || event.Op&fsnotify.Rename != 0 {
		w.handleDelete(event.Name)
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if err := w.addRecursive(event.Name); err != nil {
			logging.WatcherDebug("failed to add new directory %s: %v", event.Name, err)
		}
		return
	}

	w.mu.Lock()
	w.debounce[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) shouldIgnore(path string) bool {
	name := filepath.Base(path)
	if w.cfg.IgnoreHidden && strings.HasPrefix(name, ".") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	if w.cfg.ExtensionBlocklist[ext] {
		return true
	}
	return false
}

func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, t := range w.debounce {
		if now.Sub(t) >= w.cfg.DebounceWindow {
			ready = append(ready, path)
			delete(w.debounce, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.submitExtraction(path)
	}
}

func (w *Watcher) submitExtraction(path string) {
	info, err := os.Stat(path)
	if err != nil {
		logging.WatcherDebug("file vanished before extraction submit: %s", path)
		return
	}
	if w.cfg.MaxFileSize > 0 && info.Size() > w.cfg.MaxFileSize {
		logging.Watcher("skipping oversized file %s (%d bytes)", path, info.Size())
		return
	}

	id, err := w.q.Enqueue(catalog.JobFileExtraction, path, queue.PriorityNormal)
	if err != nil {
		logging.WatcherError("failed to enqueue extraction for %s: %v", path, err)
		return
	}
	logging.Watcher("enqueued extraction job %s for %s", id, path)
}

// handleDelete performs the soft-delete contract: the File record is marked
// skipped, but chunks and entities are retained.
func (w *Watcher) handleDelete(path string) {
	f, err := w.store.GetFileByPath(path)
	if err != nil {
		return
	}
	if err := w.store.MarkSkipped(f.ID); err != nil {
		logging.WatcherError("failed to mark %s skipped: %v", path, err)
	}
}
