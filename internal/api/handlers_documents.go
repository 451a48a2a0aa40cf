package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dgallion1/docshelf/internal/library"
)

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if s.catalogOrUnavailable(w) == nil {
		return
	}

	id := identifierParam(r)
	doc, err := s.lib.Document(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, library.ErrUnknownRecord):
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, context.Canceled):
		// Client went away.
		return
	case library.IsFetchError(err):
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	default:
		s.log.Error("document build failed", "identifier", id, "error", err)
		jsonError(w, "failed to build document", http.StatusInternalServerError)
		return
	}

	switch r.URL.Query().Get("format") {
	case "markup":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(doc.Markup))
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(doc.HTML))
	default:
		writeJSON(w, http.StatusOK, doc)
	}
}
