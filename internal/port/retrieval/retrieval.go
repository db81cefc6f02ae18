// Package retrieval defines the context lookup port. The retrieval index
// itself is an external subsystem; this boundary only fetches snippets.
package retrieval

import "context"

// Snippet is one retrieved context fragment.
type Snippet struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	Score  float64 `json:"score,omitempty"`
}

// Lookuper fetches context snippets for a planning pass. Lookups are
// best-effort: an empty result is valid and callers tolerate errors.
type Lookuper interface {
	Lookup(ctx context.Context, ownerID, query string) ([]Snippet, error)
}
