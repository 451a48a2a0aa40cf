package api

import (
	"net/http"

	"github.com/dgallion1/docshelf/internal/catalog"
)

// catalogOrUnavailable returns the loaded catalog, or writes 503 and returns
// nil before the first successful load.
func (s *Server) catalogOrUnavailable(w http.ResponseWriter) *catalog.Catalog {
	cat := s.lib.Catalog()
	if cat == nil {
		jsonError(w, "catalog not loaded", http.StatusServiceUnavailable)
	}
	return cat
}

// notModified sets the catalog ETag and reports whether the client already
// has this version.
func (s *Server) notModified(w http.ResponseWriter, r *http.Request) bool {
	etag := `"` + s.lib.Version() + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	cat := s.catalogOrUnavailable(w)
	if cat == nil {
		return
	}
	if s.notModified(w, r) {
		return
	}

	category := r.URL.Query().Get("category")
	records := cat.Filter(category, r.URL.Query().Get("q"))
	if records == nil {
		records = []catalog.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version": s.lib.Version(),
		"total":   cat.Len(),
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cat := s.catalogOrUnavailable(w)
	if cat == nil {
		return
	}
	if s.notModified(w, r) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"version":    s.lib.Version(),
		"all":        catalog.CategoryCount{Name: catalog.AllCategories, Label: "All", Count: cat.Len()},
		"categories": cat.Categories(),
	})
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	cat := s.catalogOrUnavailable(w)
	if cat == nil {
		return
	}

	id := identifierParam(r)
	rec, ok := cat.Find(id)
	if !ok {
		jsonError(w, "unknown record: "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"record":  rec,
		"slug":    rec.Slug(),
		"excerpt": rec.Excerpt(500),
	})
}
