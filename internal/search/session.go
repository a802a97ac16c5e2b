// Package search implements the client-side query engine: it loads one
// version's imported index at a time and answers ranked, deduplicated
// free-text queries against it.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgallion1/docsite/internal/catalog"
	"github.com/dgallion1/docsite/internal/searchindex"
)

// State is the lifecycle state of a search session.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateQuerying State = "querying"
	StateFailed   State = "failed"
)

var (
	// ErrUnavailable means no index is loaded; search is disabled.
	ErrUnavailable = errors.New("search unavailable")

	// ErrQuery is the generic state reported when the underlying index
	// fails during a query. The cause is logged, never surfaced.
	ErrQuery = errors.New("search failed")
)

// Source supplies the per-version artifacts a session loads: the
// exported index chunks and the search map.
type Source interface {
	Chunks(versionID string) (map[string][]byte, error)
	Entries(versionID string) (map[int]catalog.MapEntry, error)
}

// Session owns all state of one search client: the loaded index, its
// search map and the active version. Loads carry a generation counter;
// a load that finishes after a newer one started is discarded, so
// switching versions twice in quick succession always ends on the
// later version.
type Session struct {
	source Source
	log    *slog.Logger

	mu         sync.Mutex
	state      State
	generation int
	versionID  string
	index      *searchindex.Index
	entries    map[int]catalog.MapEntry
	indexDir   string

	queryDelay time.Duration
	debouncer  *Debouncer
	queryGen   int
}

// NewSession creates an unloaded session. queryDebounce is the
// keystroke delay before a live query runs; zero or negative picks the
// default.
func NewSession(source Source, log *slog.Logger, queryDebounce time.Duration) *Session {
	if queryDebounce <= 0 {
		queryDebounce = DefaultQueryDebounce
	}
	return &Session{source: source, log: log, state: StateUnloaded, queryDelay: queryDebounce}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Version returns the id of the loaded version, or "".
func (s *Session) Version() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versionID
}

// LoadVersion fetches and imports a version's index artifact,
// discarding whatever version was loaded before. Failures leave the
// session in StateFailed with search disabled; they are not retried.
func (s *Session) LoadVersion(ctx context.Context, versionID string) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = StateLoading
	s.mu.Unlock()

	index, entries, dir, err := s.load(ctx, versionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// A newer load started while this one ran; drop the result.
		if index != nil {
			index.Close()
			os.RemoveAll(dir)
		}
		return nil
	}
	if err != nil {
		s.state = StateFailed
		s.log.Error("index load failed", "version", versionID, "error", err)
		return fmt.Errorf("load version %s: %w", versionID, err)
	}
	s.discardLocked()
	s.index = index
	s.entries = entries
	s.indexDir = dir
	s.versionID = versionID
	s.state = StateReady
	s.log.Info("index loaded", "version", versionID, "documents", len(entries))
	return nil
}

func (s *Session) load(ctx context.Context, versionID string) (*searchindex.Index, map[int]catalog.MapEntry, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, "", err
	}
	chunks, err := s.source.Chunks(versionID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("fetch chunks: %w", err)
	}
	entries, err := s.source.Entries(versionID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("fetch search map: %w", err)
	}
	dir, err := os.MkdirTemp("", "docsite-index-*")
	if err != nil {
		return nil, nil, "", err
	}
	index, err := searchindex.Import(dir, chunks)
	if err != nil {
		os.RemoveAll(dir)
		return nil, nil, "", err
	}
	return index, entries, dir, nil
}

// Close releases the loaded index, returning the session to Unloaded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.queryGen++
	if s.debouncer != nil {
		s.debouncer.Stop()
	}
	s.discardLocked()
	s.state = StateUnloaded
	s.versionID = ""
}

func (s *Session) discardLocked() {
	if s.index != nil {
		s.index.Close()
		os.RemoveAll(s.indexDir)
		s.index = nil
		s.indexDir = ""
	}
	s.entries = nil
}
