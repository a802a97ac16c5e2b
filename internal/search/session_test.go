package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/docsite/internal/catalog"
	"github.com/dgallion1/docsite/internal/extract"
	"github.com/dgallion1/docsite/internal/searchindex"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource serves pre-built artifacts for any number of versions and
// can hold a version's chunk fetch open to simulate a slow load.
type fakeSource struct {
	chunks  map[string]map[string][]byte
	entries map[string]map[int]catalog.MapEntry

	started map[string]chan struct{}
	gate    map[string]chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		chunks:  make(map[string]map[string][]byte),
		entries: make(map[string]map[int]catalog.MapEntry),
		started: make(map[string]chan struct{}),
		gate:    make(map[string]chan struct{}),
	}
}

func (f *fakeSource) Chunks(versionID string) (map[string][]byte, error) {
	if ch := f.started[versionID]; ch != nil {
		close(ch)
	}
	if ch := f.gate[versionID]; ch != nil {
		<-ch
	}
	c, ok := f.chunks[versionID]
	if !ok {
		return nil, errors.New("no such version")
	}
	return c, nil
}

func (f *fakeSource) Entries(versionID string) (map[int]catalog.MapEntry, error) {
	e, ok := f.entries[versionID]
	if !ok {
		return nil, errors.New("no such version")
	}
	return e, nil
}

// addVersion builds a real index artifact for the docs and registers it
// under the version id.
func (f *fakeSource) addVersion(t *testing.T, versionID string, docs []catalog.SearchDocument, entries map[int]catalog.MapEntry) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idx")
	idx, err := searchindex.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := idx.Add(docs); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	chunks, err := searchindex.Export(path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f.chunks[versionID] = chunks
	f.entries[versionID] = entries
}

func doc(id int, title, content, sections string) catalog.SearchDocument {
	return catalog.SearchDocument{ID: id, Title: title, Content: content, SectionsText: sections}
}

func entry(title, href string, obsolete bool, sections ...extract.Section) catalog.MapEntry {
	return catalog.MapEntry{Title: title, Href: href, Sections: sections, IsObsoleted: obsolete}
}

func TestSession_Lifecycle(t *testing.T) {
	src := newFakeSource()
	src.addVersion(t, "v1",
		[]catalog.SearchDocument{doc(0, "Intro", "welcome text", "")},
		map[int]catalog.MapEntry{0: entry("Intro", "index.html", false)},
	)

	s := NewSession(src, discard(), 0)
	defer s.Close()

	if s.State() != StateUnloaded {
		t.Fatalf("expected unloaded, got %s", s.State())
	}
	if _, err := s.Query(context.Background(), "welcome"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable before load, got %v", err)
	}

	if err := s.LoadVersion(context.Background(), "v1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.State() != StateReady || s.Version() != "v1" {
		t.Fatalf("expected ready v1, got %s %s", s.State(), s.Version())
	}

	results, err := s.Query(context.Background(), "welcome")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 || results[0].Href != "index.html" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSession_LoadFailureDisablesSearch(t *testing.T) {
	s := NewSession(newFakeSource(), discard(), 0)
	defer s.Close()

	if err := s.LoadVersion(context.Background(), "missing"); err == nil {
		t.Fatal("expected load error")
	}
	if s.State() != StateFailed {
		t.Fatalf("expected failed state, got %s", s.State())
	}
	if _, err := s.Query(context.Background(), "anything"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSession_NewerLoadWins(t *testing.T) {
	src := newFakeSource()
	src.addVersion(t, "v1",
		[]catalog.SearchDocument{doc(0, "Old Version", "old content", "")},
		map[int]catalog.MapEntry{0: entry("Old Version", "index.html", false)},
	)
	src.addVersion(t, "v2",
		[]catalog.SearchDocument{doc(0, "New Version", "new content", "")},
		map[int]catalog.MapEntry{0: entry("New Version", "index.html", false)},
	)

	started := make(chan struct{})
	gate := make(chan struct{})
	src.started["v1"] = started
	src.gate["v1"] = gate

	s := NewSession(src, discard(), 0)
	defer s.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.LoadVersion(context.Background(), "v1")
	}()
	<-started

	// The newer load starts while v1 is still in flight.
	if err := s.LoadVersion(context.Background(), "v2"); err != nil {
		t.Fatalf("load v2: %v", err)
	}

	// v1 completes late; its result must be discarded.
	close(gate)
	<-done

	if s.Version() != "v2" {
		t.Fatalf("late completion overwrote the newer load: %s", s.Version())
	}
	results, err := s.Query(context.Background(), "version")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 || results[0].Title != "New Version" {
		t.Fatalf("expected v2 content, got %+v", results)
	}
}

func TestQueryLive_DebouncesToLastQuery(t *testing.T) {
	src := newFakeSource()
	src.addVersion(t, "v1",
		[]catalog.SearchDocument{
			doc(0, "Alpha", "alpha text", ""),
			doc(1, "Beta", "beta text", ""),
		},
		map[int]catalog.MapEntry{
			0: entry("Alpha", "alpha.html", false),
			1: entry("Beta", "beta.html", false),
		},
	)

	s := NewSession(src, discard(), 0)
	defer s.Close()
	if err := s.LoadVersion(context.Background(), "v1"); err != nil {
		t.Fatalf("load: %v", err)
	}

	delivered := make(chan []Result, 2)
	s.QueryLive("alpha", func(r []Result, err error) { delivered <- r })
	s.QueryLive("beta", func(r []Result, err error) { delivered <- r })

	select {
	case r := <-delivered:
		if len(r) != 1 || r[0].Title != "Beta" {
			t.Fatalf("expected only the last query to run, got %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced query never delivered")
	}

	select {
	case r := <-delivered:
		t.Fatalf("superseded query was delivered: %+v", r)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestQueryLive_ConfiguredDelay(t *testing.T) {
	src := newFakeSource()
	src.addVersion(t, "v1",
		[]catalog.SearchDocument{doc(0, "Alpha", "alpha text", "")},
		map[int]catalog.MapEntry{0: entry("Alpha", "alpha.html", false)},
	)

	s := NewSession(src, discard(), 5*time.Millisecond)
	defer s.Close()
	if err := s.LoadVersion(context.Background(), "v1"); err != nil {
		t.Fatalf("load: %v", err)
	}

	s.QueryLive("alpha", func([]Result, error) {})
	if s.debouncer.delay != 5*time.Millisecond {
		t.Errorf("configured delay not applied: %v", s.debouncer.delay)
	}

	if d := NewSession(src, discard(), 0); d.queryDelay != DefaultQueryDebounce {
		t.Errorf("zero must fall back to the default, got %v", d.queryDelay)
	}
}
