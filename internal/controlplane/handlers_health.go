package controlplane

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/excavator/excavator/internal/operation"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealth reads no shared state at all -- neither the catalog nor the
// Tracker -- so it answers within 1s (Testable Property 8) even while a
// correlation run holds every other lock in the catalog.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Version: Version})
}

type readinessResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusOK, readinessResponse{Ready: false, Reason: "startup_in_progress"})
		return
	}
	writeJSON(w, http.StatusOK, readinessResponse{Ready: true})
}

type statusResponse struct {
	Version string                `json:"version"`
	Ready   bool                  `json:"ready"`
	Stats   interface{}           `json:"stats"`
	Queue   interface{}           `json:"queue"`
	Current *operation.Descriptor `json:"current,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Catalog.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	qstats, err := s.deps.Queue.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := statusResponse{Version: Version, Ready: s.ready.Load(), Stats: stats, Queue: qstats}
	if cur, ok := s.deps.Tracker.Current(); ok {
		resp.Current = cur
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.deps.Catalog.IterPatterns()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	patternsDetected := 0
	for _, p := range patterns {
		if !p.Stale {
			patternsDetected++
		}
	}

	entitiesByType, err := s.deps.Catalog.EntityCountsByType()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	discoveries, err := s.deps.Catalog.IterDiscoveries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	discoveriesByType := make(map[string]int)
	for _, d := range discoveries {
		p, err := s.deps.Catalog.GetPattern(d.PatternID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		discoveriesByType[string(p.Type)]++
	}

	snap := s.deps.Telemetry.Snapshot(patternsDetected, entitiesByType, discoveriesByType, s.storageSizes())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(operation.EncodeEvent(snap))
}

func (s *Server) storageSizes() operation.StorageSizes {
	var out operation.StorageSizes
	if s.deps.CatalogPath != "" {
		if info, err := os.Stat(s.deps.CatalogPath); err == nil {
			out.CatalogBytes = info.Size()
			out.VectorBytes = info.Size() // same SQLite file backs both stores
		}
	}
	if s.deps.LogDir != "" {
		out.LogBytes = dirSize(s.deps.LogDir)
	}
	return out
}

func dirSize(dir string) int64 {
	var total int64
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
