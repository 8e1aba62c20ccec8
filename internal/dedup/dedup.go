// Package dedup decides whether an incoming candidate duplicates an
// already-stored article.
package dedup

import (
	"context"
	"strings"

	"coinwatch/internal/store"
)

// Gate checks candidates against the live article set before insertion.
//
// A duplicate is a case-insensitive exact title match against any live
// (non-expired) article. Titles differing only in whitespace or
// punctuation pass through; full-content similarity is deliberately not
// attempted. The scan is O(N) per check, bounded by the index capacity.
type Gate struct {
	store *store.Store
}

// NewGate creates a Gate over the given store.
func NewGate(s *store.Store) *Gate {
	return &Gate{store: s}
}

// IsDuplicate reports whether any live article carries the candidate
// title, ignoring case.
func (g *Gate) IsDuplicate(ctx context.Context, title string) (bool, error) {
	articles, err := g.store.All(ctx)
	if err != nil {
		return false, err
	}
	for _, a := range articles {
		if strings.EqualFold(a.Title, title) {
			return true, nil
		}
	}
	return false, nil
}
