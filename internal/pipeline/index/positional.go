package index

import "github.com/ecomsearch/product-index-pipeline/internal/pipeline/normalizer"

// Positional accumulates a token → URL → position-list index. Positions
// index the surviving token sequence of a field, so stop-word removal
// affects both token presence and position numbering.
type Positional struct {
	postings map[string]map[string][]int
}

// NewPositional creates an empty positional index builder.
func NewPositional() *Positional {
	return &Positional{postings: make(map[string]map[string][]int)}
}

// Observe appends pos to the (token, url) position list, creating the
// nested entry on first use. Tokens arrive in document order, so lists
// stay strictly ascending.
func (px *Positional) Observe(token, url string, pos int) {
	byURL, ok := px.postings[token]
	if !ok {
		byURL = make(map[string][]int)
		px.postings[token] = byURL
	}
	byURL[url] = append(byURL[url], pos)
}

// AddDocument records every token occurrence of one field. Unlike the
// inverted builder, repeats within a document are meaningful here: a
// token appearing three times yields three positions.
func (px *Positional) AddDocument(url string, tokens []normalizer.Token) {
	for _, tok := range tokens {
		px.Observe(tok.Term, url, tok.Position)
	}
}

// Merge folds other into px. Each document belongs to exactly one
// shard, so for distinct documents this is a disjoint union; shared
// (token, url) pairs append in merge order.
func (px *Positional) Merge(other *Positional) {
	for token, byURL := range other.postings {
		for url, positions := range byURL {
			for _, pos := range positions {
				px.Observe(token, url, pos)
			}
		}
	}
}

// Finalize returns the accumulated token → URL → positions mapping.
func (px *Positional) Finalize() map[string]map[string][]int {
	return px.postings
}

// Terms reports the number of distinct tokens observed.
func (px *Positional) Terms() int {
	return len(px.postings)
}
