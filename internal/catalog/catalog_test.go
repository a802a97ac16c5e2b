package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSource(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeSource(t, root, "index.md", "---\nid: index\nnav_order: 1\n---\n# Welcome\n\nThe welcome page.\n")
	writeSource(t, root, "guides/setup.md", "---\nid: setup\nparent: index\n---\n# Setup\n\n## Install\n\nInstall steps.\n")
	writeSource(t, root, "old.md", "---\nid: old\nstatus: obsoleted\n---\n# Old Page\n\nHistorical content.\n")
	return root
}

func TestBuild_Deterministic(t *testing.T) {
	root := fixture(t)

	first, err := Build(context.Background(), discard(), root, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Build(context.Background(), discard(), root, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first.Pages, second.Pages) {
		t.Error("page records differ between rebuilds")
	}
	if !reflect.DeepEqual(first.Docs, second.Docs) {
		t.Error("search documents differ between rebuilds")
	}
}

func TestBuild_AssignsSequentialIDs(t *testing.T) {
	root := fixture(t)
	res, err := Build(context.Background(), discard(), root, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Docs) != 3 {
		t.Fatalf("expected 3 search documents, got %d", len(res.Docs))
	}
	for i, d := range res.Docs {
		if d.ID != i {
			t.Errorf("doc %d has id %d", i, d.ID)
		}
		if _, ok := res.Map[d.ID]; !ok {
			t.Errorf("doc %d missing from search map", d.ID)
		}
	}
	if res.Succeeded != 3 || res.Failed != 0 {
		t.Errorf("unexpected counts: %d succeeded, %d failed", res.Succeeded, res.Failed)
	}
}

func TestBuild_ObsoletedIndexedButNotListed(t *testing.T) {
	root := fixture(t)
	res, err := Build(context.Background(), discard(), root, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, p := range res.Pages {
		if p.ID == "old" {
			t.Error("obsoleted record must not appear in the page list")
		}
	}

	found := false
	for id, e := range res.Map {
		if e.Title == "Old Page" {
			found = true
			if !e.IsObsoleted {
				t.Error("obsoleted map entry not flagged")
			}
			if id >= len(res.Docs) {
				t.Errorf("map id %d out of range", id)
			}
		}
	}
	if !found {
		t.Error("obsoleted record missing from index inputs")
	}
}

func TestBuild_ParentAndFileFields(t *testing.T) {
	root := fixture(t)
	res, err := Build(context.Background(), discard(), root, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var setup *PageRecord
	for i := range res.Pages {
		if res.Pages[i].ID == "setup" {
			setup = &res.Pages[i]
		}
	}
	if setup == nil {
		t.Fatal("setup page missing")
	}
	if setup.Parent != "index" {
		t.Errorf("expected parent index, got %q", setup.Parent)
	}
	if setup.File != "guides/setup.html" {
		t.Errorf("expected output-relative file, got %q", setup.File)
	}
	if setup.NavLabel != setup.Title {
		t.Errorf("nav label should default to title, got %q", setup.NavLabel)
	}
	if len(setup.Sections) != 1 || setup.Sections[0].Text != "Install" {
		t.Errorf("unexpected sections: %+v", setup.Sections)
	}
}

func TestBuild_DuplicateIDRenamed(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "a.md", "---\nid: same\n---\n# A\n")
	writeSource(t, root, "b.md", "---\nid: same\n---\n# B\n")

	res, err := Build(context.Background(), discard(), root, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("expected both pages kept, got %d", len(res.Pages))
	}
	if res.Pages[0].ID == res.Pages[1].ID {
		t.Errorf("duplicate ids were not made unique: %q", res.Pages[0].ID)
	}
}

func TestBuild_EmptySourceFails(t *testing.T) {
	if _, err := Build(context.Background(), discard(), t.TempDir(), 2); err == nil {
		t.Fatal("expected an error for a version with no sources")
	}
}

func TestDiscover_Sorted(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "z.md", "# Z\n")
	writeSource(t, root, "a.md", "# A\n")
	writeSource(t, root, "m/inner.md", "# M\n")

	paths, err := Discover(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 paths, got %d", len(paths))
	}
	for i := 1; i < len(paths); i++ {
		if paths[i-1] >= paths[i] {
			t.Errorf("paths not sorted: %v", paths)
		}
	}
}
