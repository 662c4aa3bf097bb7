package persist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ecomsearch/product-index-pipeline/internal/pipeline"
	"github.com/ecomsearch/product-index-pipeline/internal/pipeline/index"
)

func sampleResult() *pipeline.Result {
	avg := 4.0
	last := 3.0
	return &pipeline.Result{
		Title: map[string][]string{
			"shoes": {"https://shop.test/product/1", "https://shop.test/product/2"},
		},
		Description: map[string][]string{
			"red": {"https://shop.test/product/1"},
		},
		Features: map[string]map[string][]string{
			"brand_index": {
				"runfast": {"https://shop.test/product/1"},
			},
		},
		TitlePositional: map[string]map[string][]int{
			"shoes": {"https://shop.test/product/1": {1}},
		},
		DescriptionPositional: map[string]map[string][]int{
			"red": {"https://shop.test/product/1": {0, 2}},
		},
		Reviews: map[string]index.ReviewSummary{
			"https://shop.test/product/1": {TotalReviews: 2, AvgRating: &avg, LastRating: &last},
			"https://shop.test/product/2": {TotalReviews: 0},
		},
		Docs: 2,
	}
}

func TestWriteResultFileSet(t *testing.T) {
	dir := t.TempDir()
	if err := NewJSONSink(dir).WriteResult(sampleResult()); err != nil {
		t.Fatalf("WriteResult() error: %v", err)
	}

	want := []string{
		"title_index.json",
		"description_index.json",
		"brand_index.json",
		"title_positional_index.json",
		"description_positional_index.json",
		"reviews_index.json",
	}
	for _, name := range want {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(want) {
		t.Errorf("output dir has %d files, want %d", len(entries), len(want))
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteResultContent(t *testing.T) {
	dir := t.TempDir()
	if err := NewJSONSink(dir).WriteResult(sampleResult()); err != nil {
		t.Fatalf("WriteResult() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "title_index.json"))
	if err != nil {
		t.Fatal(err)
	}
	var title map[string][]string
	if err := json.Unmarshal(data, &title); err != nil {
		t.Fatalf("title_index.json is not valid JSON: %v", err)
	}
	if len(title["shoes"]) != 2 || title["shoes"][0] != "https://shop.test/product/1" {
		t.Errorf("title index = %v", title)
	}
	// Indented output, trailing newline.
	if !strings.HasPrefix(string(data), "{\n  ") {
		t.Error("title_index.json is not indented")
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("title_index.json missing trailing newline")
	}
}

func TestWriteResultReviewNulls(t *testing.T) {
	dir := t.TempDir()
	if err := NewJSONSink(dir).WriteResult(sampleResult()); err != nil {
		t.Fatalf("WriteResult() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "reviews_index.json"))
	if err != nil {
		t.Fatal(err)
	}
	var reviews map[string]map[string]any
	if err := json.Unmarshal(data, &reviews); err != nil {
		t.Fatal(err)
	}
	zero := reviews["https://shop.test/product/2"]
	if zero["total_reviews"].(float64) != 0 {
		t.Errorf("total_reviews = %v, want 0", zero["total_reviews"])
	}
	if zero["avg_rating"] != nil || zero["last_rating"] != nil {
		t.Errorf("zero-review summary ratings = %v/%v, want null/null", zero["avg_rating"], zero["last_rating"])
	}
}

func TestWriteResultWithoutPositional(t *testing.T) {
	res := sampleResult()
	res.TitlePositional = nil
	res.DescriptionPositional = nil

	dir := t.TempDir()
	if err := NewJSONSink(dir).WriteResult(res); err != nil {
		t.Fatalf("WriteResult() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "title_positional_index.json")); !os.IsNotExist(err) {
		t.Error("positional index written despite being disabled")
	}
}

func TestWriteResultCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	if err := NewJSONSink(dir).WriteResult(sampleResult()); err != nil {
		t.Fatalf("WriteResult() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "title_index.json")); err != nil {
		t.Errorf("index missing in created dir: %v", err)
	}
}

func TestEncodeFields(t *testing.T) {
	fields := encodeFields(map[string][]string{
		"shoes": {"https://shop.test/product/1"},
	})
	raw, ok := fields["shoes"].([]byte)
	if !ok {
		t.Fatalf("field value is %T, want []byte", fields["shoes"])
	}
	if string(raw) != `["https://shop.test/product/1"]` {
		t.Errorf("encoded field = %s", raw)
	}
}
