package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docshelf/internal/config"
	"github.com/dgallion1/docshelf/internal/library"
	"github.com/dgallion1/docshelf/internal/pipeline"
)

// Server is the HTTP API server for docshelf.
type Server struct {
	router       chi.Router
	lib          *library.Library
	orchestrator *pipeline.Orchestrator
	metrics      http.Handler
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. A nil metrics handler
// leaves /metrics unrouted.
func NewServer(lib *library.Library, orch *pipeline.Orchestrator, metrics http.Handler, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		lib:          lib,
		orchestrator: orch,
		metrics:      metrics,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/api/records", s.handleListRecords)
	r.Get("/api/categories", s.handleCategories)
	r.Get("/api/records/*", s.handleRecord)
	r.Get("/api/documents/*", s.handleDocument)
	r.Get("/api/stats/render", s.handleRenderStats)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	// Mutating endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.DocshelfAPIKey != "" {
			r.Use(RequireAPIKey(s.cfg.DocshelfAPIKey, s.log))
		} else {
			s.log.Warn("DOCSHELF_API_KEY not set, reload and export are unauthenticated")
		}

		r.Post("/api/reload", s.handleReload)
		r.Post("/api/export", s.handleExport)
		r.Get("/api/export/{jobID}/status", s.handleExportStatus)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cat := s.lib.Catalog()
	if cat == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"records": cat.Len(),
		"version": s.lib.Version(),
	})
}
