// Package controlplane implements the HTTP surface (spec.md §6): a chi
// router under /api/v1 exposing health/readiness/telemetry, query,
// catalog browsing, discovery feedback, job/correlation triggers, and
// graceful shutdown -- plus a root-level /metrics for Prometheus.
package controlplane

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/logging"
	"github.com/excavator/excavator/internal/operation"
	"github.com/excavator/excavator/internal/queue"
	"github.com/excavator/excavator/internal/vectorstore"
)

// Version is stamped into /health and /status responses.
const Version = "0.1.0"

// Deps collects the components the control plane reads from and drives.
// It never owns their lifecycle -- internal/daemon does.
type Deps struct {
	Catalog         *catalog.Store
	Vector          *vectorstore.Store
	Queue           *queue.Queue
	Tracker         *operation.Tracker
	Telemetry       *operation.Telemetry
	RunCorrelate    func(ctx context.Context) (CorrelationSummary, error)
	RequestShutdown func()

	// CatalogPath and LogDir locate on-disk state for the /telemetry
	// storage-size rollup. Both are informational only.
	CatalogPath string
	LogDir      string
}

// CorrelationSummary is the JSON-shaped result of a correlation run,
// decoupling the control plane from internal/correlation's Result type.
type CorrelationSummary struct {
	EntitiesConsolidated int `json:"entities_consolidated"`
	PatternsDetected     int `json:"patterns_detected"`
	DiscoveriesSurfaced  int `json:"discoveries_surfaced"`
}

// Server is the HTTP control plane.
type Server struct {
	deps   Deps
	addr   string
	router chi.Router
	http   *http.Server

	ready        atomic.Bool
	shuttingDown atomic.Bool
}

// New builds a Server listening on addr. Call Serve to start accepting
// connections.
func New(addr string, deps Deps) *Server {
	s := &Server{deps: deps, addr: addr}
	s.router = s.buildRouter()
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// SetReady flips the readiness flag /readiness reports. The daemon calls
// this once the catalog, vector store, queue, and watcher have all opened.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Serve blocks accepting connections until the listener is closed by
// Shutdown. It returns http.ErrServerClosed on a clean shutdown.
func (s *Server) Serve() error {
	logging.ControlPlane("listening on %s", s.addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests within ctx's deadline. It
// flips the shutting-down gate first so new non-health requests start
// failing fast with 503 rather than queuing up behind a closing listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shuttingDown.Store(true)
	return s.http.Shutdown(ctx)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.drainGate)

	r.Handle("/metrics", operation.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/readiness", s.handleReadiness)
		r.Get("/status", s.handleStatus)
		r.Get("/telemetry", s.handleTelemetry)
		r.Get("/query", s.handleQuery)
		r.Get("/file/{id}", s.handleFile)
		r.Get("/entities", s.handleEntities)
		r.Get("/patterns", s.handlePatterns)
		r.Get("/discoveries", s.handleDiscoveries)
		r.Post("/discoveries/{id}/feedback", s.handleFeedback)
		r.Post("/excavate", s.handleExcavate)
		r.Post("/correlate", s.handleCorrelateAsync)
		r.Post("/correlate/run", s.handleCorrelateSync)
		r.Get("/jobs", s.handleJobs)
		r.Get("/jobs/current", s.handleJobsCurrent)
		r.Get("/jobs/recent", s.handleJobsRecent)
		r.Post("/shutdown", s.handleShutdown)
	})

	return r
}

// drainGate returns 503 for every route except /health once Shutdown has
// been called -- /health keeps answering so an external process manager's
// liveness probe doesn't flap mid-drain.
func (s *Server) drainGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.shuttingDown.Load() && r.URL.Path != "/api/v1/health" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "shutting down"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
