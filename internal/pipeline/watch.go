package pipeline

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/docsite/internal/config"
	"github.com/dgallion1/docsite/internal/search"
)

// Watch rebuilds a version whenever its source directory changes.
// Change bursts are debounced per version, so a save-all in an editor
// triggers one rebuild, not dozens. Blocks until ctx is done.
func Watch(ctx context.Context, log *slog.Logger, b *Builder, site config.Site, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, v := range site.Versions {
		if err := addRecursive(w, v.Source); err != nil {
			log.Warn("watch failed for version source", "version", v.ID, "error", err)
		}
	}

	debouncers := make(map[string]*search.Debouncer, len(site.Versions))
	for _, v := range site.Versions {
		debouncers[v.ID] = search.NewDebouncer(debounce)
	}
	defer func() {
		for _, d := range debouncers {
			d.Stop()
		}
	}()

	log.Info("watching for source changes", "versions", len(site.Versions))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				// New subdirectories need their own watch.
				addRecursive(w, ev.Name)
			}
			v, ok := versionFor(site, ev.Name)
			if !ok {
				continue
			}
			version := v
			debouncers[version.ID].Do(func() {
				log.Info("source changed, rebuilding", "version", version.ID)
				if err := b.RebuildVersion(ctx, version); err != nil {
					log.Error("rebuild failed", "version", version.ID, "error", err)
				}
			})
		}
	}
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func versionFor(site config.Site, path string) (config.Version, bool) {
	for _, v := range site.Versions {
		rel, err := filepath.Rel(v.Source, path)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return v, true
		}
	}
	return config.Version{}, false
}
