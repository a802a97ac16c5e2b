package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docsite/internal/catalog"
	"github.com/dgallion1/docsite/internal/config"
	"github.com/dgallion1/docsite/internal/pipeline"
	"github.com/dgallion1/docsite/internal/search"
	"github.com/dgallion1/docsite/internal/searchindex"
)

// Server serves the built site: static pages, the version manifest,
// the navigation sidebar and the search API.
type Server struct {
	router    chi.Router
	log       *slog.Logger
	cfg       config.Config
	manifests func() []catalog.VersionManifest

	mu       sync.Mutex
	sessions map[string]*search.Session
}

// NewServer creates and configures the HTTP server. manifests is
// called per request so watch-mode rebuilds are picked up live.
func NewServer(cfg config.Config, log *slog.Logger, manifests func() []catalog.VersionManifest) *Server {
	s := &Server{
		log:       log,
		cfg:       cfg,
		manifests: manifests,
		sessions:  make(map[string]*search.Session),
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

	r.Get("/health", s.handleHealth)
	r.Get("/api/manifest", s.handleManifest)
	r.Get("/api/resolve", s.handleResolve)
	r.Get("/api/versions/{version}/search", s.handleSearch)
	r.Get("/api/versions/{version}/nav", s.handleNav)

	fileServer := http.FileServer(http.Dir(s.cfg.OutputDir))
	r.Handle("/*", fileServer)

	s.router = r
}

// Close releases every loaded search session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.Close()
	}
	s.sessions = make(map[string]*search.Session)
}

// session returns the search session for a version, loading its index
// artifact on first use. A session whose load failed stays failed;
// artifact errors are not retried automatically.
func (s *Server) session(r *http.Request, versionID string) *search.Session {
	s.mu.Lock()
	sess, ok := s.sessions[versionID]
	if !ok {
		sess = search.NewSession(artifactSource{dir: s.cfg.OutputDir}, s.log, s.cfg.QueryDebounce)
		s.sessions[versionID] = sess
	}
	s.mu.Unlock()

	if sess.State() == search.StateUnloaded {
		sess.LoadVersion(r.Context(), versionID)
	}
	return sess
}

// artifactSource feeds sessions from the built output directory: the
// index chunks are the exported files, the entries come from the
// search map.
type artifactSource struct {
	dir string
}

func (a artifactSource) Chunks(versionID string) (map[string][]byte, error) {
	return searchindex.Export(filepath.Join(a.dir, versionID, pipeline.IndexDirName))
}

func (a artifactSource) Entries(versionID string) (map[int]catalog.MapEntry, error) {
	data, err := os.ReadFile(filepath.Join(a.dir, versionID, pipeline.SearchMapName))
	if err != nil {
		return nil, fmt.Errorf("read search map: %w", err)
	}
	entries := make(map[int]catalog.MapEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse search map: %w", err)
	}
	return entries, nil
}
