// Package metrics defines the Prometheus metric collectors used by the
// indexing pipeline and the ingestion service, and exposes an HTTP
// handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	DocsProcessedTotal   prometheus.Counter
	DocsSkippedTotal     prometheus.Counter
	TokensTotal          *prometheus.CounterVec
	IndexTermCount       *prometheus.GaugeVec
	PipelineRunsTotal    *prometheus.CounterVec
	PipelineDuration     prometheus.Histogram
	IndexPublishDuration prometheus.Histogram
	PagesIngestedTotal   prometheus.Counter
	PagesRejectedTotal   prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		DocsProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_documents_processed_total",
				Help: "Total documents observed by the indexing pipeline.",
			},
		),
		DocsSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_documents_skipped_total",
				Help: "Total corpus lines skipped as malformed before indexing.",
			},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_tokens_total",
				Help: "Total normalized tokens emitted per field.",
			},
			[]string{"field"},
		),
		IndexTermCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pipeline_index_term_count",
				Help: "Distinct terms per finished index.",
			},
			[]string{"index"},
		),
		PipelineRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_runs_total",
				Help: "Total pipeline runs by status.",
			},
			[]string{"status"},
		),
		PipelineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeline_run_duration_seconds",
				Help:    "Wall-clock duration of a full pipeline pass.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
		),
		IndexPublishDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_publish_duration_seconds",
				Help:    "Duration of publishing finished indexes to Redis.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15},
			},
		),
		PagesIngestedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_pages_total",
				Help: "Total crawled pages persisted to the corpus store.",
			},
		),
		PagesRejectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_pages_rejected_total",
				Help: "Total crawled-page events dropped as undecodable or invalid.",
			},
		),
	}

	prometheus.MustRegister(
		m.DocsProcessedTotal,
		m.DocsSkippedTotal,
		m.TokensTotal,
		m.IndexTermCount,
		m.PipelineRunsTotal,
		m.PipelineDuration,
		m.IndexPublishDuration,
		m.PagesIngestedTotal,
		m.PagesRejectedTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
