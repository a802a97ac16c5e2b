package catalog

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dgallion1/docsite/internal/extract"
	"github.com/dgallion1/docsite/internal/frontmatter"
)

// PageRecord is one navigable unit of a version.
type PageRecord struct {
	ID          string                    `json:"id"`
	File        string                    `json:"file"`
	Title       string                    `json:"title"`
	NavLabel    string                    `json:"navLabel"`
	NavOrder    *float64                  `json:"navOrder,omitempty"`
	Parent      string                    `json:"parent,omitempty"`
	Sections    []extract.Section         `json:"sections,omitempty"`
	Proposal    *frontmatter.ProposalMeta `json:"proposal,omitempty"`
	IsObsoleted bool                      `json:"isObsoleted,omitempty"`
}

// SearchDocument is the indexable tuple for one page. ID is the
// sequential numeric id assigned within the version, not the page's
// string id.
type SearchDocument struct {
	ID           int
	Title        string
	Content      string
	SectionsText string
}

// MapEntry is the minimal metadata needed to render a search result,
// keyed by the same numeric id as its SearchDocument.
type MapEntry struct {
	Title       string            `json:"title"`
	Href        string            `json:"href"`
	Sections    []extract.Section `json:"sections,omitempty"`
	IsObsoleted bool              `json:"isObsoleted,omitempty"`
}

// VersionManifest is the per-version payload the client bootstraps from.
// Files lists every rendered output file, obsoleted pages included, so
// links to pages absent from the navigable Pages list still resolve.
type VersionManifest struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Pages       []PageRecord `json:"pages"`
	Files       []string     `json:"files"`
	DefaultFile string       `json:"defaultFile"`
}

// Result is the outcome of building one version's catalog.
type Result struct {
	// Pages lists the non-obsoleted records in numeric id order; this
	// is what the navigation tree is built from.
	Pages []PageRecord

	// Docs and Map cover every successfully extracted record,
	// obsoleted ones included, in numeric id order.
	Docs []SearchDocument
	Map  map[int]MapEntry

	// Rendered holds output HTML keyed by output-relative file path.
	Rendered map[string][]byte

	Succeeded int
	Failed    int
}

var sourcePatterns = []string{"**/*.md", "**/*.markdown", "**/*.html", "**/*.htm"}

// Discover lists a version's source documents, sorted for deterministic
// id assignment.
func Discover(root string) ([]string, error) {
	var paths []string
	for _, pat := range sourcePatterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, pat))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pat, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no source documents under %s", root)
	}
	sort.Strings(paths)
	return paths, nil
}

type taskResult struct {
	id     int
	record PageRecord
	doc    SearchDocument
	html   []byte
	err    error
}

// Build extracts every source document of one version, in parallel,
// into a flat page list plus one SearchDocument and MapEntry per
// record. Numeric ids are assigned before the workers start so results
// merge deterministically regardless of completion order. A single
// document's failure is counted, logged and excluded; it never fails
// the batch.
func Build(ctx context.Context, log *slog.Logger, root string, concurrency int) (*Result, error) {
	paths, err := Discover(root)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make(chan taskResult, len(paths))
	sem := make(chan struct{}, concurrency)

	for i, path := range paths {
		sem <- struct{}{}
		go func(id int, path string) {
			defer func() { <-sem }()
			select {
			case <-ctx.Done():
				results <- taskResult{id: id, err: ctx.Err()}
				return
			default:
			}
			results <- buildOne(log, root, id, path)
		}(i, path)
	}

	byID := make([]taskResult, len(paths))
	res := &Result{
		Map:      make(map[int]MapEntry, len(paths)),
		Rendered: make(map[string][]byte, len(paths)),
	}
	for range paths {
		r := <-results
		byID[r.id] = r
	}

	seen := make(map[string]int, len(paths))
	for _, r := range byID {
		if r.err != nil {
			log.Error("document failed", "path", paths[r.id], "error", r.err)
			res.Failed++
			continue
		}
		if prev, dup := seen[r.record.ID]; dup {
			log.Warn("duplicate page id, renaming", "id", r.record.ID, "path", paths[r.id], "first", paths[prev])
			r.record.ID = fmt.Sprintf("%s-%d", r.record.ID, r.id)
		}
		seen[r.record.ID] = r.id
		res.Succeeded++

		res.Docs = append(res.Docs, r.doc)
		res.Map[r.doc.ID] = MapEntry{
			Title:       r.record.Title,
			Href:        r.record.File,
			Sections:    r.record.Sections,
			IsObsoleted: r.record.IsObsoleted,
		}
		res.Rendered[r.record.File] = r.html
		if !r.record.IsObsoleted {
			res.Pages = append(res.Pages, r.record)
		}
	}
	return res, nil
}

func buildOne(log *slog.Logger, root string, id int, path string) taskResult {
	raw, err := os.ReadFile(path)
	if err != nil {
		return taskResult{id: id, err: fmt.Errorf("read: %w", err)}
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	meta, ext := extract.Document(log, path, raw)

	record := PageRecord{
		ID:          meta.ID,
		File:        outputFile(rel),
		Title:       ext.Title,
		NavLabel:    meta.NavLabel,
		NavOrder:    meta.NavOrder,
		Parent:      meta.Parent,
		Sections:    ext.Sections,
		Proposal:    ext.Proposal,
		IsObsoleted: obsoleted(meta, ext),
	}
	if record.ID == "" {
		record.ID = pageID(rel)
	}
	if record.NavLabel == "" {
		record.NavLabel = record.Title
	}

	doc := SearchDocument{
		ID:           id,
		Title:        ext.Title,
		Content:      ext.PlainText,
		SectionsText: sectionsText(ext.Sections),
	}
	out := ext.HTML
	if out == nil {
		// Degraded extraction keeps the raw text readable as output.
		out = []byte("<pre>" + html.EscapeString(ext.PlainText) + "</pre>")
	}
	return taskResult{id: id, record: record, doc: doc, html: out}
}

func obsoleted(meta frontmatter.Meta, ext extract.Extracted) bool {
	if meta.Obsolete {
		return true
	}
	status := strings.ToLower(meta.Status)
	if ext.Proposal != nil {
		status = ext.Proposal.Status
	}
	return status == "obsoleted" || status == "obsolete"
}

// pageID derives a stable id from an output-relative source path.
func pageID(rel string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

// outputFile maps a source path to its output-relative target.
func outputFile(rel string) string {
	ext := filepath.Ext(rel)
	switch strings.ToLower(ext) {
	case ".md", ".markdown":
		return strings.TrimSuffix(rel, ext) + ".html"
	}
	return rel
}

// sectionsText joins section heading texts into the distinct indexed
// field used for section-level matches.
func sectionsText(sections []extract.Section) string {
	var parts []string
	for _, s := range sections {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}
