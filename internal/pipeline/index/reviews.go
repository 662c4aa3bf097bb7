package index

import "github.com/ecomsearch/product-index-pipeline/internal/corpus"

// ReviewSummary is the per-URL review-quality entry of the reviews
// index. AvgRating and LastRating are nil when the document has no
// reviews; no rounding is applied here.
type ReviewSummary struct {
	TotalReviews int      `json:"total_reviews"`
	AvgRating    *float64 `json:"avg_rating"`
	LastRating   *float64 `json:"last_rating"`
}

// Summarize computes one document's review statistics. LastRating is
// the final element in document order: the supplied order is the only
// ordering the corpus guarantees, so no timestamp sorting happens.
func Summarize(reviews []corpus.Review) ReviewSummary {
	total := len(reviews)
	if total == 0 {
		return ReviewSummary{}
	}
	sum := 0.0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := sum / float64(total)
	last := reviews[total-1].Rating
	return ReviewSummary{
		TotalReviews: total,
		AvgRating:    &avg,
		LastRating:   &last,
	}
}

// ReviewStats accumulates the URL → summary index. Every observed
// document gets an entry, including documents with zero reviews.
type ReviewStats struct {
	byURL map[string]ReviewSummary
}

// NewReviewStats creates an empty review aggregator.
func NewReviewStats() *ReviewStats {
	return &ReviewStats{byURL: make(map[string]ReviewSummary)}
}

// AddDocument records the summary for one document's URL.
func (rs *ReviewStats) AddDocument(url string, reviews []corpus.Review) {
	rs.byURL[url] = Summarize(reviews)
}

// Merge folds other into rs. With unique URLs per shard this is a
// disjoint union; on a shared URL the later shard wins, matching
// last-line-wins for duplicate corpus lines.
func (rs *ReviewStats) Merge(other *ReviewStats) {
	for url, summary := range other.byURL {
		rs.byURL[url] = summary
	}
}

// Finalize returns the accumulated URL → summary mapping.
func (rs *ReviewStats) Finalize() map[string]ReviewSummary {
	return rs.byURL
}

// Docs reports the number of URLs summarized.
func (rs *ReviewStats) Docs() int {
	return len(rs.byURL)
}
