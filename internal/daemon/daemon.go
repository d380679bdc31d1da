// Package daemon wires every subsystem into one long-running process and
// owns its lifecycle: startup ordering, the single-instance lock, signal
// handling, and graceful shutdown.
package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/config"
	"github.com/excavator/excavator/internal/controlplane"
	"github.com/excavator/excavator/internal/correlation"
	"github.com/excavator/excavator/internal/embedding"
	"github.com/excavator/excavator/internal/logging"
	"github.com/excavator/excavator/internal/ner"
	"github.com/excavator/excavator/internal/operation"
	"github.com/excavator/excavator/internal/pipeline"
	"github.com/excavator/excavator/internal/queue"
	"github.com/excavator/excavator/internal/vectorstore"
	"github.com/excavator/excavator/internal/watcher"
)

const reconcileBatchSize = 100

// Daemon owns the full excavator process: catalog, vector store, queue,
// watcher, extraction pipeline, operation tracker, and control plane.
//
// Startup order (spec.md §9's reactor-policy note plus the dual-store
// reconciliation contract both depend on this sequence): lock file ->
// catalog -> vector store -> reconcile -> queue -> watcher -> control
// plane. Nothing before the lock touches disk state another instance
// might also be touching.
type Daemon struct {
	cfg  *config.Config
	lock *flock.Flock

	catalog   *catalog.Store
	vector    *vectorstore.Store
	embedder  embedding.EmbeddingEngine
	queue     *queue.Queue
	watcher   *watcher.Watcher
	pipeline  *pipeline.Pipeline
	worker    *pipeline.Worker
	tracker   *operation.Tracker
	telemetry *operation.Telemetry
	control   *controlplane.Server

	shutdownCh chan struct{}
}

// New constructs every subsystem in startup order. The returned Daemon has
// not yet started accepting connections or watching the filesystem; call
// Run for that.
func New(cfg *config.Config) (*Daemon, error) {
	lockPath := filepath.Join(cfg.StateDir, "excavator.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire single-instance lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another excavator instance already holds %s", lockPath)
	}
	logging.Daemon("acquired single-instance lock at %s", lockPath)

	store, err := catalog.Open(cfg.Catalog.DatabasePath, cfg.Catalog.BusyTimeout)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	embedder, err := embedding.NewEngine(embedding.Config{
		Provider:       cfg.Embedding.Provider,
		OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
		OllamaModel:    cfg.Embedding.OllamaModel,
		GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
		GenAIModel:     cfg.Embedding.GenAIModel,
		TaskType:       cfg.Embedding.TaskType,
	})
	if err != nil {
		store.Close()
		lock.Unlock()
		return nil, fmt.Errorf("build embedding engine: %w", err)
	}

	vs, err := vectorstore.Open(store.DB(), embedder, cfg.VectorStore.Dimensions, cfg.VectorStore.UseExtension)
	if err != nil {
		store.Close()
		lock.Unlock()
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	if _, err := store.Reconcile(context.Background(), vs, reconcileBatchSize); err != nil {
		store.Close()
		lock.Unlock()
		return nil, fmt.Errorf("startup reconciliation: %w", err)
	}

	q, err := queue.New(store, cfg.Queue.MaxRetries, cfg.Queue.RecentRing, cfg.Queue.QueueCapacity)
	if err != nil {
		store.Close()
		lock.Unlock()
		return nil, fmt.Errorf("build queue: %w", err)
	}

	blocklist := make(map[string]bool, len(cfg.Watcher.ExtensionBlocklist))
	for _, ext := range cfg.Watcher.ExtensionBlocklist {
		blocklist[ext] = true
	}
	w, err := watcher.New(store, q, watcher.Config{
		Roots:              cfg.Watcher.Roots,
		DebounceWindow:     time.Duration(cfg.Watcher.DebounceMS) * time.Millisecond,
		IgnoreHidden:       cfg.Watcher.IgnoreHidden,
		IgnoreVCS:          cfg.Watcher.IgnoreVCS,
		ExtensionBlocklist: blocklist,
		MaxFileSize:        int64(cfg.Watcher.MaxFileSizeMB) * 1024 * 1024,
	})
	if err != nil {
		store.Close()
		lock.Unlock()
		return nil, fmt.Errorf("build watcher: %w", err)
	}

	var neural ner.Recognizer // no neural NER backend is wired in this build; tech-term detection always runs
	p := pipeline.New(store, vs, embedder, neural, pipeline.Config{
		MaxFileSize:    int64(cfg.Watcher.MaxFileSizeMB) * 1024 * 1024,
		EmbedBatchSize: cfg.Embedding.BatchSize,
	})
	worker := pipeline.NewWorker(q, p)

	tracker := operation.New()
	telemetry := operation.NewTelemetry(tracker, nil)

	d := &Daemon{
		cfg:        cfg,
		lock:       lock,
		catalog:    store,
		vector:     vs,
		embedder:   embedder,
		queue:      q,
		watcher:    w,
		pipeline:   p,
		worker:     worker,
		tracker:    tracker,
		telemetry:  telemetry,
		shutdownCh: make(chan struct{}),
	}

	d.control = controlplane.New(cfg.ControlPlane.ListenAddr, controlplane.Deps{
		Catalog:         store,
		Vector:          vs,
		Queue:           q,
		Tracker:         tracker,
		Telemetry:       telemetry,
		RunCorrelate:    d.runCorrelate,
		RequestShutdown: d.requestShutdown,
		CatalogPath:     cfg.Catalog.DatabasePath,
		LogDir:          filepath.Join(cfg.StateDir, "logs"),
	})

	return d, nil
}

// runCorrelate runs one correlation pass and records its outcome in the
// Prometheus metrics alongside the operation tracker's own bookkeeping.
func (d *Daemon) runCorrelate(ctx context.Context) (controlplane.CorrelationSummary, error) {
	start := time.Now()
	result, err := correlation.Run(ctx, d.catalog, d.tracker)
	if err != nil {
		return controlplane.CorrelationSummary{}, err
	}
	operation.CorrelationDuration.Observe(time.Since(start).Seconds())
	operation.CorrelationRunsTotal.Inc()
	operation.DiscoveriesSurfacedTotal.Add(float64(result.DiscoveriesSurfaced))
	return controlplane.CorrelationSummary{
		EntitiesConsolidated: result.EntitiesConsolidated,
		PatternsDetected:     result.PatternsDetected,
		DiscoveriesSurfaced:  result.DiscoveriesSurfaced,
	}, nil
}

// requestShutdown is wired to the control plane's POST /shutdown handler.
func (d *Daemon) requestShutdown() {
	select {
	case <-d.shutdownCh:
	default:
		close(d.shutdownCh)
	}
}
