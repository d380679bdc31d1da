package controlplane

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/excavator/excavator/internal/catalog"
)

type queryResult struct {
	ChunkID string  `json:"chunk_id"`
	FileID  string  `json:"file_id"`
	Path    string  `json:"path"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, errors.New("q is required"))
		return
	}
	k := 10
	if raw := r.URL.Query().Get("k"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			k = parsed
		}
	}

	matches, err := s.deps.Vector.QueryByText(r.Context(), q, k)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	results := make([]queryResult, 0, len(matches))
	for _, m := range matches {
		chunk, err := s.deps.Catalog.GetChunk(m.ChunkID)
		if err != nil {
			continue
		}
		file, err := s.deps.Catalog.GetFileByID(chunk.FileID)
		if err != nil {
			continue
		}
		results = append(results, queryResult{
			ChunkID: chunk.ID,
			FileID:  file.ID,
			Path:    file.Path,
			Score:   m.Score,
			Text:    chunk.Text,
		})
	}
	writeJSON(w, http.StatusOK, results)
}

type fileResponse struct {
	File   catalog.FileRecord   `json:"file"`
	Chunks []catalog.ChunkRecord `json:"chunks"`
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	file, err := s.deps.Catalog.GetFileByID(id)
	if errors.Is(err, catalog.ErrFileNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	chunks, err := s.deps.Catalog.IterChunks(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, fileResponse{File: file, Chunks: chunks})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := s.deps.Catalog.IterConsolidatedEntities()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if typ := r.URL.Query().Get("type"); typ != "" {
		filtered := entities[:0]
		for _, e := range entities {
			if string(e.Type) == typ {
				filtered = append(filtered, e)
			}
		}
		entities = filtered
	}
	writeJSON(w, http.StatusOK, entities)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.deps.Catalog.IterPatterns()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	includeStale := r.URL.Query().Get("stale") == "true"
	typeFilter := r.URL.Query().Get("type")
	filtered := patterns[:0]
	for _, p := range patterns {
		if !includeStale && p.Stale {
			continue
		}
		if typeFilter != "" && string(p.Type) != typeFilter {
			continue
		}
		filtered = append(filtered, p)
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleDiscoveries(w http.ResponseWriter, r *http.Request) {
	discoveries, err := s.deps.Catalog.IterDiscoveries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := discoveries[:0]
		for _, d := range discoveries {
			if string(d.Status) == status {
				filtered = append(filtered, d)
			}
		}
		discoveries = filtered
	}
	writeJSON(w, http.StatusOK, discoveries)
}

type feedbackRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body feedbackRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Action != "confirm" && body.Action != "dismiss" {
		writeError(w, http.StatusBadRequest, errors.New("action must be confirm or dismiss"))
		return
	}
	if err := s.deps.Catalog.ApplyFeedback(id, body.Action, body.Notes); err != nil {
		if errors.Is(err, catalog.ErrDiscoveryNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
