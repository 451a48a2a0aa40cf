package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docshelf/internal/pipeline"
)

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	changed, err := s.lib.Load(r.Context())
	if err != nil {
		s.log.Error("reload failed", "error", err)
		jsonError(w, "reload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": changed,
		"version": s.lib.Version(),
		"records": s.lib.Catalog().Len(),
	})
}

type exportRequest struct {
	// Name selects a subdirectory of the export dir; empty writes to the
	// export dir itself.
	Name string `json:"name"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	outDir := s.orchestrator.DefaultOutDir()
	if req.Name != "" {
		outDir = filepath.Join(outDir, exportDirName(req.Name))
	}

	job := pipeline.NewJob(outDir)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"out_dir":  job.OutDir,
		"poll_url": fmt.Sprintf("/api/export/%s/status", job.ID),
	})
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
