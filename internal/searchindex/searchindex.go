// Package searchindex wraps the full-text index a version's search
// runs against. The index is built once at build time, exported as a
// set of named chunks, and reconstructed at runtime purely from those
// chunks.
package searchindex

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/blevesearch/bleve/v2"

	"github.com/dgallion1/docsite/internal/catalog"
)

// Indexed field names. Section headings are a distinct field so the
// query engine can weight them separately from body content.
const (
	FieldTitle    = "title"
	FieldSections = "sections"
	FieldContent  = "content"
)

// Index is a queryable per-version index.
type Index struct {
	bleve bleve.Index
	path  string
}

// Hit is one field-level match reported by the index. Body carries the
// stored plain-text content of the matched document, used downstream
// for snippets.
type Hit struct {
	ID    int
	Score float64
	Body  string
}

// Create makes a fresh index at path.
func Create(path string) (*Index, error) {
	m := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	for _, field := range []string{FieldTitle, FieldSections, FieldContent} {
		fm := bleve.NewTextFieldMapping()
		// Body content is stored so query results can carry snippet
		// text without a second lookup.
		fm.Store = field == FieldContent
		fm.IncludeInAll = false
		doc.AddFieldMappingsAt(field, fm)
	}
	m.DefaultMapping = doc

	idx, err := bleve.New(path, m)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{bleve: idx, path: path}, nil
}

// Open loads an existing index from path.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{bleve: idx, path: path}, nil
}

// Add indexes a batch of search documents.
func (x *Index) Add(docs []catalog.SearchDocument) error {
	batch := x.bleve.NewBatch()
	for _, d := range docs {
		err := batch.Index(strconv.Itoa(d.ID), map[string]string{
			FieldTitle:    d.Title,
			FieldSections: d.SectionsText,
			FieldContent:  d.Content,
		})
		if err != nil {
			return fmt.Errorf("index doc %d: %w", d.ID, err)
		}
	}
	if err := x.bleve.Batch(batch); err != nil {
		return fmt.Errorf("index batch: %w", err)
	}
	return nil
}

func (x *Index) Close() error {
	return x.bleve.Close()
}

// Match runs a single-field match query and returns the numeric
// document ids that hit, best first.
func (x *Index) Match(ctx context.Context, field, query string, limit int) ([]Hit, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField(field)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{FieldContent}

	res, err := x.bleve.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", field, err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hit := Hit{ID: id, Score: h.Score}
		if body, ok := h.Fields[FieldContent].(string); ok {
			hit.Body = body
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Export reads a closed index directory back as named chunks; the
// chunk name is the file path relative to the index root. Importing
// the same chunks must yield an index that answers every query
// identically.
func Export(path string) (map[string][]byte, error) {
	chunks := make(map[string][]byte)
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		chunks[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("export index: %w", err)
	}
	return chunks, nil
}

// Import materializes named chunks into a fresh index directory and
// opens it. It depends on nothing from build time beyond the chunks
// themselves.
func Import(path string, chunks map[string][]byte) (*Index, error) {
	for name, data := range chunks {
		target := filepath.Join(path, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("import chunk %s: %w", name, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return nil, fmt.Errorf("import chunk %s: %w", name, err)
		}
	}
	return Open(path)
}
