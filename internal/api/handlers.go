package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docsite/internal/catalog"
	"github.com/dgallion1/docsite/internal/navtree"
	"github.com/dgallion1/docsite/internal/router"
	"github.com/dgallion1/docsite/internal/search"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"versions": s.manifests(),
	})
}

// handleResolve maps a fragment target to a real version/file pair,
// falling back to defaults for anything that no longer exists.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	target, ok := router.Resolve(s.log, router.Parse(r.URL.Query().Get("target")), s.manifests())
	writeJSON(w, http.StatusOK, map[string]any{
		"version":  target.Version,
		"file":     target.File,
		"section":  target.Section,
		"fragment": target.Fragment(),
		"resolved": ok,
	})
}

type searchResponse struct {
	Results []search.Result `json:"results"`
	Error   string          `json:"error,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	versionID := chi.URLParam(r, "version")
	if s.findManifest(versionID) == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown version"})
		return
	}

	sess := s.session(r, versionID)
	results, err := sess.Query(r.Context(), r.URL.Query().Get("q"))

	resp := searchResponse{Results: results}
	if resp.Results == nil {
		resp.Results = []search.Result{}
	}
	status := http.StatusOK
	switch {
	case errors.Is(err, search.ErrUnavailable):
		resp.Error = "search is unavailable for this version"
		status = http.StatusServiceUnavailable
	case err != nil:
		// Generic inline message; the cause is already logged.
		resp.Error = "search failed, please try again"
	}
	writeJSON(w, status, resp)
}

// handleNav renders the sidebar for a version, with the node matching
// the active file highlighted and its ancestors expanded.
func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	versionID := chi.URLParam(r, "version")
	m := s.findManifest(versionID)
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown version"})
		return
	}

	state := navtree.NewState(navtree.Build(m.Pages))
	if active := r.URL.Query().Get("active"); active != "" {
		state.SetActive(active)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(navtree.RenderHTML(versionID, state)))
}

func (s *Server) findManifest(versionID string) *catalog.VersionManifest {
	for _, m := range s.manifests() {
		if m.ID == versionID {
			found := m
			return &found
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
