package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ecomsearch/product-index-pipeline/internal/corpus"
	"github.com/ecomsearch/product-index-pipeline/pkg/kafka"
	"github.com/ecomsearch/product-index-pipeline/pkg/metrics"
)

// HandleMessage returns a Kafka MessageHandler that validates each
// crawled-page event and persists it to the corpus store. Events that
// fail to decode or validate are logged and dropped; storage errors are
// returned so the message is not committed and gets retried.
// Metrics may be nil.
func HandleMessage(store *corpus.Store, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingest-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[PageEvent](value)
		if err != nil {
			logger.Error("failed to decode page event",
				"error", err,
				"key", string(key),
			)
			if m != nil {
				m.PagesRejectedTotal.Inc()
			}
			return nil
		}
		if err := ValidatePageEvent(&event); err != nil {
			logger.Warn("rejecting page event",
				"url", event.URL,
				"error", err,
			)
			if m != nil {
				m.PagesRejectedTotal.Inc()
			}
			return nil
		}
		if err := store.InsertPage(ctx, event.Record()); err != nil {
			return fmt.Errorf("storing page %s: %w", event.URL, err)
		}
		if m != nil {
			m.PagesIngestedTotal.Inc()
		}
		logger.Info("page ingested", "url", event.URL)
		return nil
	}
}
