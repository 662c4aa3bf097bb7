package benchmark

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/ecomsearch/product-index-pipeline/internal/corpus"
	"github.com/ecomsearch/product-index-pipeline/internal/pipeline"
)

// sliceSource replays a fixed document set as a pipeline stream.
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

func makeDocs(n int) []*corpus.Document {
	docs := make([]*corpus.Document, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, corpus.NewDocument(corpus.Record{
			URL:         fmt.Sprintf("https://shop.test/product/%d?variant=v%d", i, i%3),
			Title:       fmt.Sprintf("Chaussures de running modèle %d pour la ville", i),
			Description: fmt.Sprintf("Le modèle %d offre un excellent maintien du pied, une semelle durable et un tissu respirant pour toutes les saisons.", i),
			ProductFeatures: map[string]string{
				"brand":   fmt.Sprintf("marque-%d", i%20),
				"made in": "France",
			},
			ProductReviews: []corpus.Review{
				{Rating: float64(i % 6), Date: "2024-03-01"},
				{Rating: float64((i + 2) % 6), Date: "2024-04-15"},
			},
		}))
	}
	return docs
}

func benchPipeline(b *testing.B) *pipeline.Pipeline {
	b.Helper()
	return pipeline.New(newNormalizer(b), map[string]string{
		"brand_index":  "brand",
		"origin_index": "made in",
	}, true)
}

// BenchmarkPipelineRun measures single-pass index construction at several
// corpus sizes.
func BenchmarkPipelineRun(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			p := benchPipeline(b)
			docs := makeDocs(size)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				res, err := p.Run(context.Background(), &sliceSource{docs: docs})
				if err != nil {
					b.Fatal(err)
				}
				_ = res
			}
		})
	}
}

// BenchmarkPipelineRunSharded measures sharded index construction over a
// fixed corpus at varying shard counts.
func BenchmarkPipelineRunSharded(b *testing.B) {
	docs := makeDocs(10000)
	for _, shards := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("shards_%d", shards), func(b *testing.B) {
			p := benchPipeline(b)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				res, err := p.RunSharded(context.Background(), &sliceSource{docs: docs}, shards)
				if err != nil {
					b.Fatal(err)
				}
				_ = res
			}
		})
	}
}

// BenchmarkPipelineRunNoPositional isolates the cost of the positional
// indexes by running the same corpus with them disabled.
func BenchmarkPipelineRunNoPositional(b *testing.B) {
	p := pipeline.New(newNormalizer(b), map[string]string{
		"brand_index":  "brand",
		"origin_index": "made in",
	}, false)
	docs := makeDocs(1000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := p.Run(context.Background(), &sliceSource{docs: docs})
		if err != nil {
			b.Fatal(err)
		}
		_ = res
	}
}
