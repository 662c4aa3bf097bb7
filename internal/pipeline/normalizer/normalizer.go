// Package normalizer turns raw field text into ordered sequences of
// normalized tokens. It splits on whitespace runs, lower-cases, strips
// surrounding punctuation, collapses apostrophe variants, and removes
// stop-words. Position numbering counts surviving tokens only, so the
// emitted positions are the ones consumed by the positional index.
package normalizer

import "strings"

// punctCutset is stripped from both ends of every candidate token.
// Apostrophe forms are deliberately absent: they are normalized
// separately so possessive suffixes can be collapsed.
const punctCutset = ".,;:!?\"()[]{}<>«»“”-–—/\\|@#$%^&*_~+="

// apostrophes maps curly and backtick apostrophe variants to the
// straight form.
var apostrophes = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"`", "'",
)

// Token is a single normalized term and its index within the surviving
// token sequence of the field it came from.
type Token struct {
	Term     string
	Position int
}

// Normalizer tokenizes text against an immutable stop-word set. It is
// safe for concurrent use; Tokenize retains no state between calls.
type Normalizer struct {
	stopwords map[string]struct{}
}

// New creates a Normalizer with the given stop-word list. Comparison is
// case-insensitive: the list is lowercased once here.
func New(stopwords []string) *Normalizer {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &Normalizer{stopwords: set}
}

// Tokenize breaks text into normalized tokens in original left-to-right
// order. Tokens that normalize to the empty string or to a stop-word
// are dropped; surviving tokens are numbered 0..n-1. Repeated terms are
// not deduplicated here, that is the builders' concern.
func (n *Normalizer) Tokenize(text string) []Token {
	if text == "" {
		return nil
	}
	words := strings.Fields(text)
	tokens := make([]Token, 0, len(words))
	pos := 0
	for _, raw := range words {
		term := normalizeWord(raw)
		if term == "" {
			continue
		}
		if _, stop := n.stopwords[term]; stop {
			continue
		}
		tokens = append(tokens, Token{Term: term, Position: pos})
		pos++
	}
	return tokens
}

// normalizeWord lowercases a candidate, strips surrounding punctuation,
// and collapses apostrophe forms so that possessives fold onto the bare
// stem ("kids'" and "kid's" both lose their suffix).
func normalizeWord(raw string) string {
	word := strings.ToLower(raw)
	word = strings.Trim(word, punctCutset)
	if word == "" {
		return ""
	}
	word = apostrophes.Replace(word)
	if strings.HasSuffix(word, "'s") {
		word = word[:len(word)-2]
	}
	word = strings.TrimSuffix(word, "'")
	return word
}
