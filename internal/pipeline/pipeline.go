// Package pipeline drives the construction of the search preparation
// indexes over a corpus document stream: one pass feeds every document
// into the inverted, positional, and review builders, then hands the
// finished structures to the persistence sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ecomsearch/product-index-pipeline/internal/corpus"
	"github.com/ecomsearch/product-index-pipeline/internal/pipeline/index"
	"github.com/ecomsearch/product-index-pipeline/internal/pipeline/normalizer"
	"github.com/ecomsearch/product-index-pipeline/pkg/metrics"
)

// Source yields corpus documents in stream order. Next returns io.EOF
// once the stream is exhausted.
type Source interface {
	Next() (*corpus.Document, error)
}

// Result carries the finished index structures of one pipeline run.
// Features is keyed by output index name (e.g. "brand_index").
type Result struct {
	Title                 map[string][]string
	Description           map[string][]string
	Features              map[string]map[string][]string
	TitlePositional       map[string]map[string][]int
	DescriptionPositional map[string]map[string][]int
	Reviews               map[string]index.ReviewSummary
	Docs                  int
}

// Pipeline dispatches documents to the builder set. The feature map
// binds output index names to the corpus feature keys they index.
type Pipeline struct {
	norm       *normalizer.Normalizer
	features   map[string]string
	positional bool
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New creates a Pipeline. features maps output index names to feature
// keys (looked up case-insensitively on each document); positional
// controls whether the title and description positional indexes are
// built alongside the inverted ones.
func New(norm *normalizer.Normalizer, features map[string]string, positional bool) *Pipeline {
	return &Pipeline{
		norm:       norm,
		features:   features,
		positional: positional,
		logger:     slog.Default().With("component", "pipeline"),
	}
}

// WithMetrics attaches Prometheus collectors to the pipeline.
func (p *Pipeline) WithMetrics(m *metrics.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// Run drives a single traversal of the document stream and finalizes
// all builders.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Result, error) {
	start := time.Now()
	b := p.newBuilders()
	docs := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading document stream: %w", err)
		}
		p.observe(b, doc)
		docs++
	}
	res := b.finalize(docs)
	p.finishRun(res, 1, time.Since(start))
	return res, nil
}

// RunSharded reads the stream into memory, partitions it into
// contiguous shards, indexes each shard concurrently with its own
// builder set, and folds the partial results left to right. Contiguous
// partitioning plus ordered folding preserves first-appearance
// ordering across the whole stream.
func (p *Pipeline) RunSharded(ctx context.Context, src Source, shards int) (*Result, error) {
	if shards <= 1 {
		return p.Run(ctx, src)
	}
	start := time.Now()
	docs, err := drain(ctx, src)
	if err != nil {
		return nil, err
	}
	if shards > len(docs) {
		shards = max(len(docs), 1)
	}

	partials := make([]*builders, shards)
	chunk := (len(docs) + shards - 1) / shards
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < shards; i++ {
		lo := i * chunk
		hi := min(lo+chunk, len(docs))
		b := p.newBuilders()
		partials[i] = b
		g.Go(func() error {
			for _, doc := range docs[lo:hi] {
				if err := gctx.Err(); err != nil {
					return err
				}
				p.observe(b, doc)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := partials[0]
	for _, b := range partials[1:] {
		merged.merge(b)
	}
	res := merged.finalize(len(docs))
	p.finishRun(res, shards, time.Since(start))
	return res, nil
}

func (p *Pipeline) finishRun(res *Result, shards int, elapsed time.Duration) {
	p.logger.Info("pipeline pass complete",
		"docs", res.Docs,
		"shards", shards,
		"title_terms", len(res.Title),
		"description_terms", len(res.Description),
		"duration", elapsed,
	)
	if p.metrics == nil {
		return
	}
	p.metrics.PipelineDuration.Observe(elapsed.Seconds())
	p.metrics.PipelineRunsTotal.WithLabelValues("ok").Inc()
	p.metrics.IndexTermCount.WithLabelValues("title_index").Set(float64(len(res.Title)))
	p.metrics.IndexTermCount.WithLabelValues("description_index").Set(float64(len(res.Description)))
	for name, idx := range res.Features {
		p.metrics.IndexTermCount.WithLabelValues(name).Set(float64(len(idx)))
	}
}

// builders is the per-shard builder set. Shards never share builders,
// so no locking is needed during a pass.
type builders struct {
	title    *index.Inverted
	desc     *index.Inverted
	features map[string]*index.Inverted
	titlePos *index.Positional
	descPos  *index.Positional
	reviews  *index.ReviewStats
}

func (p *Pipeline) newBuilders() *builders {
	b := &builders{
		title:    index.NewInverted(),
		desc:     index.NewInverted(),
		features: make(map[string]*index.Inverted, len(p.features)),
		reviews:  index.NewReviewStats(),
	}
	for name := range p.features {
		b.features[name] = index.NewInverted()
	}
	if p.positional {
		b.titlePos = index.NewPositional()
		b.descPos = index.NewPositional()
	}
	return b
}

// observe dispatches one document to every builder. Builders have no
// cross-dependencies, so dispatch order is not observable in the
// output.
func (p *Pipeline) observe(b *builders, doc *corpus.Document) {
	titleTokens := p.norm.Tokenize(doc.Title)
	descTokens := p.norm.Tokenize(doc.Description)

	b.title.AddDocument(doc.URL, titleTokens)
	b.desc.AddDocument(doc.URL, descTokens)
	if b.titlePos != nil {
		b.titlePos.AddDocument(doc.URL, titleTokens)
		b.descPos.AddDocument(doc.URL, descTokens)
	}

	// Feature indexes only reference product pages with a declared,
	// non-empty value; the document may still contribute elsewhere.
	if doc.ProductID != "" {
		for name, key := range p.features {
			value := doc.Feature(key)
			if value == "" {
				continue
			}
			b.features[name].AddDocument(doc.URL, p.norm.Tokenize(value))
		}
	}

	b.reviews.AddDocument(doc.URL, doc.Reviews)

	if p.metrics != nil {
		p.metrics.DocsProcessedTotal.Inc()
		p.metrics.TokensTotal.WithLabelValues("title").Add(float64(len(titleTokens)))
		p.metrics.TokensTotal.WithLabelValues("description").Add(float64(len(descTokens)))
	}
}

// merge folds other into b, in stream order.
func (b *builders) merge(other *builders) {
	b.title.Merge(other.title)
	b.desc.Merge(other.desc)
	for name, ix := range other.features {
		b.features[name].Merge(ix)
	}
	if b.titlePos != nil {
		b.titlePos.Merge(other.titlePos)
		b.descPos.Merge(other.descPos)
	}
	b.reviews.Merge(other.reviews)
}

func (b *builders) finalize(docs int) *Result {
	res := &Result{
		Title:       b.title.Finalize(),
		Description: b.desc.Finalize(),
		Features:    make(map[string]map[string][]string, len(b.features)),
		Reviews:     b.reviews.Finalize(),
		Docs:        docs,
	}
	for name, ix := range b.features {
		res.Features[name] = ix.Finalize()
	}
	if b.titlePos != nil {
		res.TitlePositional = b.titlePos.Finalize()
		res.DescriptionPositional = b.descPos.Finalize()
	}
	return res
}

func drain(ctx context.Context, src Source) ([]*corpus.Document, error) {
	var docs []*corpus.Document
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := src.Next()
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading document stream: %w", err)
		}
		docs = append(docs, doc)
	}
}
