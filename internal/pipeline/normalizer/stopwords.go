package normalizer

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/ecomsearch/product-index-pipeline/pkg/errors"
)

// frenchStopwords and englishStopwords are the built-in language lists.
// The pipeline runs over a bilingual product corpus, so the default
// configuration takes the union of both.
var frenchStopwords = []string{
	"le", "la", "les", "un", "une", "des", "de", "du", "d", "l",
	"et", "ou", "où", "à", "a", "au", "aux", "en", "dans", "sur",
	"pour", "par", "avec", "sans", "ce", "cette", "ces", "son", "sa",
	"ses", "il", "elle", "ils", "elles", "ne", "pas", "plus", "est",
	"sont", "qui", "que", "mais", "donc", "car",
}

var englishStopwords = []string{
	"the", "a", "an", "and", "or", "to", "of", "in", "for", "with",
	"on", "at", "is", "are", "was", "were", "be", "been", "this",
	"that", "it", "its", "as", "by", "from", "has", "have", "had",
	"not", "no", "so", "can", "will",
}

var languageLists = map[string][]string{
	"french":  frenchStopwords,
	"english": englishStopwords,
}

// Stopwords returns the union of the named built-in language lists plus
// any extra words, lowercased, deduplicated, and sorted. Unknown
// language names are rejected.
func Stopwords(languages []string, extra []string) ([]string, error) {
	set := make(map[string]struct{})
	for _, lang := range languages {
		list, ok := languageLists[strings.ToLower(lang)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownLanguage, lang)
		}
		for _, w := range list {
			set[w] = struct{}{}
		}
	}
	for _, w := range extra {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	union := make([]string, 0, len(set))
	for w := range set {
		union = append(union, w)
	}
	sort.Strings(union)
	return union, nil
}
