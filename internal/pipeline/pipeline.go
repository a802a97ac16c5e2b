// Package pipeline orchestrates building all configured versions into
// the output directory: rendered pages, the per-version index artifact,
// the search map and the version manifest.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dgallion1/docsite/internal/catalog"
	"github.com/dgallion1/docsite/internal/config"
	"github.com/dgallion1/docsite/internal/searchindex"
)

// Output layout within a version directory.
const (
	IndexDirName   = "index"
	SearchMapName  = "searchmap.json"
	ManifestName   = "manifest.json"
	indexBuildName = ".index-build"
)

// VersionResult is the per-version build outcome surfaced to callers.
type VersionResult struct {
	ID        string
	Succeeded int
	Failed    int
	Err       error
}

// Builder builds versions sequentially into one output directory and
// keeps the manifest current across incremental rebuilds.
type Builder struct {
	log         *slog.Logger
	out         string
	concurrency int

	mu        sync.Mutex
	manifests map[string]catalog.VersionManifest
	order     []string
}

func NewBuilder(log *slog.Logger, outputDir string, concurrency int) *Builder {
	return &Builder{
		log:         log,
		out:         outputDir,
		concurrency: concurrency,
		manifests:   make(map[string]catalog.VersionManifest),
	}
}

// BuildAll builds every configured version in order. Versions are
// never interleaved; one version's fatal error skips only that version
// and is reported in its result. The call fails outright only when no
// version built at all.
func (b *Builder) BuildAll(ctx context.Context, site config.Site) ([]VersionResult, error) {
	results := make([]VersionResult, 0, len(site.Versions))
	built := 0
	for _, v := range site.Versions {
		r := b.BuildVersion(ctx, v)
		results = append(results, r)
		if r.Err != nil {
			b.log.Error("version build failed, skipping", "version", v.ID, "error", r.Err)
			continue
		}
		built++
	}
	if built == 0 {
		return results, fmt.Errorf("no version built successfully")
	}
	if err := b.writeManifest(); err != nil {
		return results, err
	}
	return results, nil
}

// BuildVersion builds one version: catalog, rendered pages, index
// artifact and search map. Used by BuildAll and by watch-mode rebuilds.
func (b *Builder) BuildVersion(ctx context.Context, v config.Version) VersionResult {
	log := b.log.With("version", v.ID)
	result := VersionResult{ID: v.ID}

	cat, err := catalog.Build(ctx, log, v.Source, b.concurrency)
	if err != nil {
		result.Err = err
		return result
	}
	result.Succeeded = cat.Succeeded
	result.Failed = cat.Failed

	vdir := filepath.Join(b.out, v.ID)
	if err := os.RemoveAll(vdir); err != nil {
		result.Err = fmt.Errorf("clean version dir: %w", err)
		return result
	}

	for file, html := range cat.Rendered {
		target := filepath.Join(vdir, filepath.FromSlash(file))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			result.Err = err
			return result
		}
		if err := os.WriteFile(target, html, 0o644); err != nil {
			result.Err = fmt.Errorf("write page %s: %w", file, err)
			return result
		}
	}

	if err := b.writeIndex(vdir, cat); err != nil {
		result.Err = err
		return result
	}
	if err := writeJSON(filepath.Join(vdir, SearchMapName), cat.Map); err != nil {
		result.Err = err
		return result
	}

	files := make([]string, 0, len(cat.Rendered))
	for file := range cat.Rendered {
		files = append(files, file)
	}
	sort.Strings(files)

	manifest := catalog.VersionManifest{
		ID:          v.ID,
		Label:       v.Label,
		Pages:       cat.Pages,
		Files:       files,
		DefaultFile: v.Default,
	}
	b.mu.Lock()
	if _, known := b.manifests[v.ID]; !known {
		b.order = append(b.order, v.ID)
	}
	b.manifests[v.ID] = manifest
	b.mu.Unlock()

	log.Info("version built",
		"pages", len(cat.Pages),
		"indexed", len(cat.Docs),
		"failed", cat.Failed,
	)
	return result
}

// writeIndex builds the bleve index in a scratch directory, then
// round-trips it through the chunk export so the published artifact is
// exactly what a client import will see.
func (b *Builder) writeIndex(vdir string, cat *catalog.Result) error {
	scratch := filepath.Join(vdir, indexBuildName)
	idx, err := searchindex.Create(scratch)
	if err != nil {
		return err
	}
	if err := idx.Add(cat.Docs); err != nil {
		idx.Close()
		return err
	}
	if err := idx.Close(); err != nil {
		return err
	}

	chunks, err := searchindex.Export(scratch)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(scratch); err != nil {
		return err
	}

	target := filepath.Join(vdir, IndexDirName)
	for name, data := range chunks {
		p := filepath.Join(target, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return fmt.Errorf("write index chunk %s: %w", name, err)
		}
	}
	return nil
}

// Manifests returns the built version manifests in configured order.
func (b *Builder) Manifests() []catalog.VersionManifest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]catalog.VersionManifest, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.manifests[id])
	}
	return out
}

func (b *Builder) writeManifest() error {
	payload := struct {
		Versions []catalog.VersionManifest `json:"versions"`
	}{Versions: b.Manifests()}
	return writeJSON(filepath.Join(b.out, ManifestName), payload)
}

// RebuildVersion rebuilds one version and refreshes the manifest;
// watch mode calls this per change burst.
func (b *Builder) RebuildVersion(ctx context.Context, v config.Version) error {
	if r := b.BuildVersion(ctx, v); r.Err != nil {
		return r.Err
	}
	return b.writeManifest()
}

// ReadManifest loads the version manifest written by a previous build.
func ReadManifest(outputDir string) ([]catalog.VersionManifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var payload struct {
		Versions []catalog.VersionManifest `json:"versions"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return payload.Versions, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
