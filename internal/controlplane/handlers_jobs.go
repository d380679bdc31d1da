package controlplane

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/excavator/excavator/internal/catalog"
	"github.com/excavator/excavator/internal/logging"
	"github.com/excavator/excavator/internal/operation"
)

type excavateRequest struct {
	Paths    []string `json:"paths"`
	Priority string   `json:"priority"`
}

func (s *Server) handleExcavate(w http.ResponseWriter, r *http.Request) {
	var body excavateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(body.Paths) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("paths must be non-empty"))
		return
	}

	priority := catalog.JobPriority(body.Priority)
	if priority == "" {
		priority = catalog.PriorityNormal
	}

	payload, err := json.Marshal(body.Paths)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	jobID, err := s.deps.Queue.Enqueue(catalog.JobBatchExtraction, string(payload), priority)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// handleCorrelateAsync starts a correlation run in the background and
// returns immediately. A run already in flight is reported as a conflict
// rather than queued, since only one correlation run is meaningful at a
// time (its output fully replaces the pattern set).
func (s *Server) handleCorrelateAsync(w http.ResponseWriter, r *http.Request) {
	if cur, ok := s.deps.Tracker.Current(); ok && cur.Kind == operation.KindCorrelation {
		writeError(w, http.StatusConflict, errors.New("correlation already running"))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := s.deps.RunCorrelate(ctx); err != nil {
			logging.ControlPlaneError("async correlation run failed: %v", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleCorrelateSync(w http.ResponseWriter, r *http.Request) {
	if cur, ok := s.deps.Tracker.Current(); ok && cur.Kind == operation.KindCorrelation {
		writeError(w, http.StatusConflict, errors.New("correlation already running"))
		return
	}
	result, err := s.deps.RunCorrelate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Queue.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleJobsCurrent(w http.ResponseWriter, r *http.Request) {
	job, ok := s.deps.Queue.Current()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"running": false})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobsRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	writeJSON(w, http.StatusOK, s.deps.Queue.Recent(limit))
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "shutting_down"})
	if s.deps.RequestShutdown != nil {
		go s.deps.RequestShutdown()
	}
}
