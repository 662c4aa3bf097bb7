// Package index implements the in-memory builders for the search
// preparation indexes: inverted token→URL indexes, positional indexes,
// and per-document review summaries. Each builder owns its accumulator
// and exposes Observe/AddDocument, Merge, and Finalize; Finalize
// returns plain serializable maps.
package index

import "github.com/ecomsearch/product-index-pipeline/internal/pipeline/normalizer"

// Inverted accumulates a token → URL-list index. URL lists contain each
// URL at most once, ordered by first appearance across the document
// stream.
type Inverted struct {
	postings map[string][]string
	seen     map[string]map[string]struct{}
}

// NewInverted creates an empty inverted index builder.
func NewInverted() *Inverted {
	return &Inverted{
		postings: make(map[string][]string),
		seen:     make(map[string]map[string]struct{}),
	}
}

// Observe appends url to the token's posting list unless it is already
// present.
func (ix *Inverted) Observe(token, url string) {
	urls, ok := ix.seen[token]
	if !ok {
		urls = make(map[string]struct{})
		ix.seen[token] = urls
	}
	if _, dup := urls[url]; dup {
		return
	}
	urls[url] = struct{}{}
	ix.postings[token] = append(ix.postings[token], url)
}

// AddDocument observes each distinct token of one document once, in
// order of first occurrence within the document.
func (ix *Inverted) AddDocument(url string, tokens []normalizer.Token) {
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, dup := seen[tok.Term]; dup {
			continue
		}
		seen[tok.Term] = struct{}{}
		ix.Observe(tok.Term, url)
	}
}

// Merge folds other into ix. Partial indexes must be merged in stream
// order: other's URLs are appended after ix's own, so first-appearance
// ordering across shards holds when shards are contiguous stream
// slices.
func (ix *Inverted) Merge(other *Inverted) {
	for token, urls := range other.postings {
		for _, url := range urls {
			ix.Observe(token, url)
		}
	}
}

// Finalize returns the accumulated token → URL-list mapping. No
// transformation is applied; insertion order is already the contract.
func (ix *Inverted) Finalize() map[string][]string {
	return ix.postings
}

// Terms reports the number of distinct tokens observed.
func (ix *Inverted) Terms() int {
	return len(ix.postings)
}
