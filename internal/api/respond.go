package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

type errorBody struct {
	Error string `json:"error"`
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// identifierParam returns the record identifier captured by a trailing
// wildcard route. chi matches on the raw path when the request carries one,
// in which case the capture is still escaped.
func identifierParam(r *http.Request) string {
	id := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}
	}
	return id
}

// exportDirName reduces a client supplied export name to a single path
// element safe to join under the export root.
func exportDirName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	switch name {
	case "", ".", "/":
		return "unnamed"
	case "..":
		return "_"
	}
	return strings.ReplaceAll(name, "..", "_")
}
