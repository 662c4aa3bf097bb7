// Package corpus models crawled product pages and provides the
// document sources consumed by the indexing pipeline: a line-delimited
// JSON file reader and a PostgreSQL-backed page store.
package corpus

import "strings"

// Review is one customer review as supplied by the crawler. The
// pipeline never re-sorts reviews; document order is the only ordering
// the corpus guarantees.
type Review struct {
	Rating float64 `json:"rating"`
	Date   string  `json:"date,omitempty"`
	Text   string  `json:"text,omitempty"`
}

// Link is an outbound link recorded by the crawler. Opaque to the
// pipeline, carried through for downstream consumers.
type Link struct {
	URL        string `json:"url"`
	AnchorText string `json:"anchor_text,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
}

// Record is the raw JSON shape of one crawled page, one per corpus
// line.
type Record struct {
	URL             string            `json:"url"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	ProductFeatures map[string]string `json:"product_features"`
	ProductReviews  []Review          `json:"product_reviews"`
	Links           []Link            `json:"links"`
}

// Document is one corpus record as seen by the pipeline. Feature keys
// are lowercased once at construction so builders can do plain map
// lookups instead of case-insensitive scans.
type Document struct {
	URL         string
	ProductID   string
	Variant     string
	Title       string
	Description string
	Features    map[string]string
	Reviews     []Review
	Links       []Link
}

// NewDocument builds a Document from a raw record, deriving the
// product id and variant from the URL and normalizing feature keys.
func NewDocument(rec Record) *Document {
	features := make(map[string]string, len(rec.ProductFeatures))
	for k, v := range rec.ProductFeatures {
		features[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Document{
		URL:         rec.URL,
		ProductID:   ExtractProductID(rec.URL),
		Variant:     ExtractVariant(rec.URL),
		Title:       rec.Title,
		Description: rec.Description,
		Features:    features,
		Reviews:     rec.ProductReviews,
		Links:       rec.Links,
	}
}

// Feature returns the value declared under the given key, looked up
// case-insensitively. The empty string means the feature was not
// declared.
func (d *Document) Feature(key string) string {
	return d.Features[strings.ToLower(key)]
}
