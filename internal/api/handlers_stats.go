package api

import (
	"net/http"
)

func (s *Server) handleRenderStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"stats":       s.lib.Stats().Snapshot(),
		"version":     s.lib.Version(),
		"queue_depth": s.orchestrator.QueueDepth(),
	}
	if at := s.lib.LoadedAt(); !at.IsZero() {
		resp["loaded_at"] = at
	}
	writeJSON(w, http.StatusOK, resp)
}
