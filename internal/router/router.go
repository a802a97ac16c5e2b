// Package router parses the fragment identifiers that deep-link into
// the site: "#versionId/path/to/file.html" with an optional
// "#sectionId" suffix.
package router

import (
	"log/slog"
	"strings"

	"github.com/dgallion1/docsite/internal/catalog"
)

// Target is a parsed navigation target.
type Target struct {
	Version string
	File    string
	Section string
}

func (t Target) Fragment() string {
	f := "#" + t.Version + "/" + t.File
	if t.Section != "" {
		f += "#" + t.Section
	}
	return f
}

// Parse splits a fragment identifier into its target parts. Any part
// may come back empty; Resolve fills the gaps.
func Parse(fragment string) Target {
	fragment = strings.TrimPrefix(fragment, "#")

	var t Target
	if i := strings.Index(fragment, "#"); i >= 0 {
		t.Section = fragment[i+1:]
		fragment = fragment[:i]
	}
	if i := strings.Index(fragment, "/"); i >= 0 {
		t.Version = fragment[:i]
		t.File = fragment[i+1:]
	} else {
		t.Version = fragment
	}
	return t
}

// Resolve validates a target against the built versions and falls back
// to the default version/file for anything that does not exist, so a
// stale bookmark lands on a real page instead of a blank one. Each
// fallback is logged as a warning.
func Resolve(log *slog.Logger, t Target, versions []catalog.VersionManifest) (Target, bool) {
	if len(versions) == 0 {
		return t, false
	}
	ok := true

	v := findVersion(versions, t.Version)
	if v == nil {
		log.Warn("unknown version, using default", "version", t.Version)
		v = &versions[0]
		t.Version = v.ID
		t.File = v.DefaultFile
		t.Section = ""
		ok = false
	}

	if !hasFile(v, t.File) {
		if t.File != "" {
			log.Warn("unknown file, using default", "version", t.Version, "file", t.File)
			ok = false
		}
		t.File = v.DefaultFile
		t.Section = ""
	}
	return t, ok
}

func findVersion(versions []catalog.VersionManifest, id string) *catalog.VersionManifest {
	for i := range versions {
		if versions[i].ID == id {
			return &versions[i]
		}
	}
	return nil
}

// hasFile accepts any rendered file, not just the navigable pages, so
// deep links to obsoleted pages still land on them.
func hasFile(v *catalog.VersionManifest, file string) bool {
	for _, f := range v.Files {
		if f == file {
			return true
		}
	}
	for _, p := range v.Pages {
		if p.File == file {
			return true
		}
	}
	return false
}
