// Package ingest receives crawled-page events from Kafka, validates
// them, and persists them into the corpus store feeding the indexing
// pipeline.
package ingest

import (
	"time"

	"github.com/ecomsearch/product-index-pipeline/internal/corpus"
)

// PageEvent is the Kafka message payload produced by the crawler for
// every fetched product page. Its field names match the corpus line
// format, so one crawl event maps to one stored page.
type PageEvent struct {
	URL             string            `json:"url"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	ProductFeatures map[string]string `json:"product_features,omitempty"`
	ProductReviews  []corpus.Review   `json:"product_reviews,omitempty"`
	Links           []corpus.Link     `json:"links,omitempty"`
	CrawledAt       time.Time         `json:"crawled_at,omitempty"`
}

// Record converts the event to a corpus record for storage.
func (e PageEvent) Record() corpus.Record {
	return corpus.Record{
		URL:             e.URL,
		Title:           e.Title,
		Description:     e.Description,
		ProductFeatures: e.ProductFeatures,
		ProductReviews:  e.ProductReviews,
		Links:           e.Links,
	}
}
