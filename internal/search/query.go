package search

import (
	"context"
	"sort"
	"unicode"

	"github.com/dgallion1/docsite/internal/searchindex"
)

// Fixed relevance weights: a title match always beats a section match,
// which always beats a body match. Obsoleted documents lose half a
// tier so they rank below equivalent live documents without vanishing.
const (
	weightTitle     = 3.0
	weightSections  = 2.0
	weightContent   = 1.0
	obsoletePenalty = 0.5

	// minQueryLen is the minimum number of non-whitespace characters
	// for a query to be executed at all.
	minQueryLen = 2

	maxHitsPerField = 50
)

// Result is one ranked search hit, normalized from the index's
// field-level matches and the search map.
type Result struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Href     string  `json:"href"`
	Score    float64 `json:"score"`
	Field    string  `json:"field"`
	Snippet  string  `json:"snippet"`
	Obsolete bool    `json:"obsolete,omitempty"`
}

// queryFields are searched independently, best field wins per document.
// Order matters: earlier fields carry higher weights, and the merge
// keeps the first (highest-weighted) hit for a document.
var queryFields = []struct {
	name   string
	weight float64
}{
	{searchindex.FieldTitle, weightTitle},
	{searchindex.FieldSections, weightSections},
	{searchindex.FieldContent, weightContent},
}

// Query answers a free-text query against the loaded version. Queries
// below the minimum length return an empty result without touching the
// index. An index failure during the query is logged and reported as
// the generic ErrQuery with no results.
func (s *Session) Query(ctx context.Context, query string) ([]Result, error) {
	if countNonSpace(query) < minQueryLen {
		return nil, nil
	}

	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return nil, ErrUnavailable
	}
	s.state = StateQuerying
	index := s.index
	entries := s.entries
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.state == StateQuerying {
			s.state = StateReady
		}
		s.mu.Unlock()
	}()

	merged := make(map[int]Result)
	var order []int
	for _, field := range queryFields {
		hits, err := index.Match(ctx, field.name, query, maxHitsPerField)
		if err != nil {
			s.log.Error("query failed", "field", field.name, "query", query, "error", err)
			return nil, ErrQuery
		}
		for _, hit := range hits {
			if _, seen := merged[hit.ID]; seen {
				// Already matched on a higher-weighted field.
				continue
			}
			entry, ok := entries[hit.ID]
			if !ok {
				continue
			}
			score := field.weight
			if entry.IsObsoleted {
				score -= obsoletePenalty
			}
			merged[hit.ID] = Result{
				ID:       hit.ID,
				Title:    entry.Title,
				Href:     entry.Href,
				Score:    score,
				Field:    field.name,
				Snippet:  snippet(query, field.name, entry, hit.Body),
				Obsolete: entry.IsObsoleted,
			}
			order = append(order, hit.ID)
		}
	}

	results := make([]Result, 0, len(merged))
	for _, id := range order {
		results = append(results, merged[id])
	}
	// Descending score; ascending id keeps equal scores stable.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
