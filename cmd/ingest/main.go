package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecomsearch/product-index-pipeline/internal/corpus"
	"github.com/ecomsearch/product-index-pipeline/internal/ingest"
	"github.com/ecomsearch/product-index-pipeline/pkg/config"
	"github.com/ecomsearch/product-index-pipeline/pkg/health"
	"github.com/ecomsearch/product-index-pipeline/pkg/kafka"
	"github.com/ecomsearch/product-index-pipeline/pkg/logger"
	"github.com/ecomsearch/product-index-pipeline/pkg/metrics"
	"github.com/ecomsearch/product-index-pipeline/pkg/postgres"
	"github.com/ecomsearch/product-index-pipeline/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/ingest.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ingest service",
		"topic", cfg.Kafka.Topics.PageCrawled,
		"group", cfg.Kafka.ConsumerGroup,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pg *postgres.Client
	err = resilience.Retry(ctx, "postgres connect", resilience.RetryConfig{MaxAttempts: 5}, func() error {
		var connErr error
		pg, connErr = postgres.New(cfg.Postgres)
		return connErr
	})
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	store := corpus.NewStore(pg)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure corpus schema", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) error {
		return pg.Ping(ctx)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.LiveHandler())
	mux.HandleFunc("/readyz", checker.ReadyHandler())
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		slog.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	consumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.PageCrawled,
		ingest.HandleMessage(store, m),
	)
	slog.Info("ingest service ready, consuming from kafka")
	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	slog.Info("ingest service stopped")
}
