package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"testing"

	"github.com/ecomsearch/product-index-pipeline/internal/corpus"
	"github.com/ecomsearch/product-index-pipeline/internal/pipeline/normalizer"
)

// sliceSource is an in-memory document stream for tests.
type sliceSource struct {
	docs []*corpus.Document
	pos  int
}

func (s *sliceSource) Next() (*corpus.Document, error) {
	if s.pos >= len(s.docs) {
		return nil, io.EOF
	}
	doc := s.docs[s.pos]
	s.pos++
	return doc, nil
}

func doc(rec corpus.Record) *corpus.Document {
	return corpus.NewDocument(rec)
}

func testFeatures() map[string]string {
	return map[string]string{
		"brand_index":  "brand",
		"origin_index": "made in",
	}
}

func testDocs() []*corpus.Document {
	return []*corpus.Document{
		doc(corpus.Record{
			URL:         "https://shop.test/product/1",
			Title:       "Red Shoes",
			Description: "Comfortable red shoes for the city.",
			ProductFeatures: map[string]string{
				"Brand":   "Runfast",
				"Made In": "France",
			},
			ProductReviews: []corpus.Review{{Rating: 4}, {Rating: 2}, {Rating: 5}},
		}),
		doc(corpus.Record{
			URL:         "https://shop.test/product/2?variant=blue",
			Title:       "Blue Shoes",
			Description: "Shoes in blue.",
			ProductFeatures: map[string]string{
				"brand": "Runfast",
			},
		}),
		doc(corpus.Record{
			URL:   "https://shop.test/about",
			Title: "About the shop",
			ProductFeatures: map[string]string{
				"brand": "Runfast",
			},
		}),
	}
}

func newTestPipeline() *Pipeline {
	return New(normalizer.New([]string{"the", "for", "in"}), testFeatures(), true)
}

func TestRunBuildsAllIndexes(t *testing.T) {
	res, err := newTestPipeline().Run(context.Background(), &sliceSource{docs: testDocs()})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Docs != 3 {
		t.Fatalf("Docs = %d, want 3", res.Docs)
	}

	wantShoes := []string{
		"https://shop.test/product/1",
		"https://shop.test/product/2?variant=blue",
	}
	if got := res.Title["shoes"]; !reflect.DeepEqual(got, wantShoes) {
		t.Errorf("title shoes = %v, want %v", got, wantShoes)
	}

	// Feature values resolve case-insensitively on both sides.
	if got := res.Features["brand_index"]["runfast"]; !reflect.DeepEqual(got, wantShoes) {
		t.Errorf("brand runfast = %v, want %v", got, wantShoes)
	}
	if got := res.Features["origin_index"]["france"]; !reflect.DeepEqual(got, []string{"https://shop.test/product/1"}) {
		t.Errorf("origin france = %v", got)
	}

	// The about page has a brand feature but no product id, so it must
	// not appear in feature indexes while still appearing elsewhere.
	for _, urls := range res.Features["brand_index"] {
		for _, u := range urls {
			if u == "https://shop.test/about" {
				t.Error("non-product page leaked into brand_index")
			}
		}
	}
	if _, ok := res.Title["about"]; !ok {
		t.Error("about page missing from title index")
	}

	summary, ok := res.Reviews["https://shop.test/product/1"]
	if !ok {
		t.Fatal("reviews summary missing")
	}
	if summary.TotalReviews != 3 || *summary.AvgRating != 11.0/3.0 || *summary.LastRating != 5 {
		t.Errorf("summary = %+v", summary)
	}
	if noReviews := res.Reviews["https://shop.test/about"]; noReviews.TotalReviews != 0 {
		t.Errorf("about summary = %+v, want zero reviews", noReviews)
	}
}

func TestRunCrossFieldIndependence(t *testing.T) {
	d := doc(corpus.Record{
		URL:         "https://shop.test/product/9",
		Title:       "red shoes",
		Description: "very red indeed red",
	})
	res, err := newTestPipeline().Run(context.Background(), &sliceSource{docs: []*corpus.Document{d}})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := res.TitlePositional["red"][d.URL]; !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("title red positions = %v, want [0]", got)
	}
	if got := res.DescriptionPositional["red"][d.URL]; !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("description red positions = %v, want [1 3]", got)
	}
}

func TestRunStopwordsAffectPositions(t *testing.T) {
	d := doc(corpus.Record{
		URL:   "https://shop.test/product/3",
		Title: "the red shoes",
	})
	res, err := newTestPipeline().Run(context.Background(), &sliceSource{docs: []*corpus.Document{d}})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if _, ok := res.Title["the"]; ok {
		t.Error("stopword indexed")
	}
	if got := res.TitlePositional["red"][d.URL]; !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("red positions = %v, want [0]", got)
	}
	if got := res.TitlePositional["shoes"][d.URL]; !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("shoes positions = %v, want [1]", got)
	}
}

func TestRunShardedMatchesSinglePass(t *testing.T) {
	docs := make([]*corpus.Document, 0, 40)
	for i := 0; i < 40; i++ {
		docs = append(docs, doc(corpus.Record{
			URL:         fmt.Sprintf("https://shop.test/product/%d", i),
			Title:       fmt.Sprintf("Product %d red shoes", i),
			Description: fmt.Sprintf("Item number %d, red and sturdy.", i),
			ProductFeatures: map[string]string{
				"brand":   fmt.Sprintf("brand-%d", i%5),
				"made in": "France",
			},
			ProductReviews: []corpus.Review{{Rating: float64(i % 6)}},
		}))
	}

	p := newTestPipeline()
	single, err := p.Run(context.Background(), &sliceSource{docs: docs})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	for _, shards := range []int{2, 3, 7} {
		sharded, err := p.RunSharded(context.Background(), &sliceSource{docs: docs}, shards)
		if err != nil {
			t.Fatalf("RunSharded(%d) error: %v", shards, err)
		}
		if !reflect.DeepEqual(single, sharded) {
			t.Errorf("sharded result (shards=%d) differs from single pass", shards)
		}
	}
}

func TestRunIdempotent(t *testing.T) {
	docs := testDocs()
	p := newTestPipeline()
	first, err := p.Run(context.Background(), &sliceSource{docs: docs})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	second, err := p.Run(context.Background(), &sliceSource{docs: docs})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatal("two identical runs produced different serialized indexes")
	}
}

func TestRunEmptyStream(t *testing.T) {
	res, err := newTestPipeline().RunSharded(context.Background(), &sliceSource{}, 4)
	if err != nil {
		t.Fatalf("RunSharded() error: %v", err)
	}
	if res.Docs != 0 || len(res.Title) != 0 || len(res.Reviews) != 0 {
		t.Fatalf("empty stream result = %+v", res)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestPipeline().Run(ctx, &sliceSource{docs: testDocs()}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
