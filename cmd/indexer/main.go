package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecomsearch/product-index-pipeline/internal/corpus"
	"github.com/ecomsearch/product-index-pipeline/internal/persist"
	"github.com/ecomsearch/product-index-pipeline/internal/pipeline"
	"github.com/ecomsearch/product-index-pipeline/internal/pipeline/normalizer"
	"github.com/ecomsearch/product-index-pipeline/pkg/config"
	"github.com/ecomsearch/product-index-pipeline/pkg/kafka"
	"github.com/ecomsearch/product-index-pipeline/pkg/logger"
	"github.com/ecomsearch/product-index-pipeline/pkg/metrics"
	"github.com/ecomsearch/product-index-pipeline/pkg/postgres"
	"github.com/ecomsearch/product-index-pipeline/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/indexer.yaml", "path to config file")
	corpusPath := flag.String("corpus", "", "override corpus file path")
	outputDir := flag.String("out", "", "override index output directory")
	shards := flag.Int("shards", 0, "override shard count")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *corpusPath != "" {
		cfg.Corpus.Path = *corpusPath
	}
	if *outputDir != "" {
		cfg.Indexer.OutputDir = *outputDir
	}
	if *shards > 0 {
		cfg.Indexer.Shards = *shards
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting index build",
		"source", cfg.Corpus.Source,
		"shards", cfg.Indexer.Shards,
		"output_dir", cfg.Indexer.OutputDir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port)
	}

	stopwords, err := normalizer.Stopwords(cfg.Stopwords.Languages, cfg.Stopwords.Extra)
	if err != nil {
		slog.Error("failed to build stopword set", "error", err)
		os.Exit(1)
	}
	p := pipeline.New(normalizer.New(stopwords), cfg.Indexer.Features, cfg.Indexer.Positional).
		WithMetrics(m)

	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		slog.Error("failed to open corpus source", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	res, err := p.RunSharded(ctx, src, cfg.Indexer.Shards)
	if err != nil {
		m.PipelineRunsTotal.WithLabelValues("error").Inc()
		slog.Error("index build failed", "error", err)
		closeSrc()
		os.Exit(1)
	}
	if skipper, ok := src.(interface{ Skipped() int }); ok && skipper.Skipped() > 0 {
		m.DocsSkippedTotal.Add(float64(skipper.Skipped()))
		slog.Warn("corpus records skipped", "count", skipper.Skipped())
	}
	closeSrc()

	sink := persist.NewJSONSink(cfg.Indexer.OutputDir)
	if err := sink.WriteResult(res); err != nil {
		slog.Error("failed to write indexes", "error", err)
		os.Exit(1)
	}

	if cfg.Redis.Publish {
		if err := publishToRedis(ctx, cfg, m, res); err != nil {
			slog.Error("failed to publish indexes to redis", "error", err)
			os.Exit(1)
		}
	}

	if cfg.Indexer.AnnounceBuilds {
		announceBuild(ctx, cfg, res)
	}

	if shutdownMetrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = shutdownMetrics(shutdownCtx)
		cancel()
	}
	slog.Info("index build complete",
		"docs", res.Docs,
		"duration", time.Since(start),
	)
}

// openSource opens the configured document stream: a JSONL corpus file
// or the Postgres page store.
func openSource(ctx context.Context, cfg *config.Config) (pipeline.Source, func(), error) {
	switch cfg.Corpus.Source {
	case "postgres":
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		stream, err := corpus.NewStore(pg).Stream(ctx)
		if err != nil {
			pg.Close()
			return nil, nil, err
		}
		return stream, func() {
			stream.Close()
			pg.Close()
		}, nil
	default:
		fs, err := corpus.OpenFile(cfg.Corpus.Path)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() { fs.Close() }, nil
	}
}

func publishToRedis(ctx context.Context, cfg *config.Config, m *metrics.Metrics, res *pipeline.Result) error {
	client, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()
	start := time.Now()
	if err := persist.NewPublisher(client, cfg.Redis.KeyPrefix).PublishResult(ctx, res); err != nil {
		return err
	}
	m.IndexPublishDuration.Observe(time.Since(start).Seconds())
	return nil
}

// announceBuild publishes a completion event so downstream query
// services can reload. Best effort: a failed announcement does not fail
// the build.
func announceBuild(ctx context.Context, cfg *config.Config, res *pipeline.Result) {
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexBuilt)
	defer producer.Close()
	event := kafka.Event{
		Key: "index-build",
		Value: map[string]any{
			"docs":         res.Docs,
			"output_dir":   cfg.Indexer.OutputDir,
			"completed_at": time.Now().UTC(),
		},
	}
	if err := producer.Publish(ctx, event); err != nil {
		slog.Error("build announcement failed", "error", err)
	}
}
