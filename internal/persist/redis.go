package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ecomsearch/product-index-pipeline/internal/pipeline"
	pkgredis "github.com/ecomsearch/product-index-pipeline/pkg/redis"
	"github.com/ecomsearch/product-index-pipeline/pkg/resilience"
)

// Publisher mirrors finished indexes into Redis hashes so a query
// service can look tokens up without loading the JSON files. Each index
// becomes one hash keyed prefix+name; fields are tokens (or URLs for
// the reviews index) and values are JSON-encoded entries.
type Publisher struct {
	client *pkgredis.Client
	prefix string
	logger *slog.Logger
}

// NewPublisher creates a Publisher writing under the given key prefix.
func NewPublisher(client *pkgredis.Client, prefix string) *Publisher {
	return &Publisher{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "redis-publisher"),
	}
}

// PublishResult replaces the previous run's keys with the new indexes.
func (p *Publisher) PublishResult(ctx context.Context, res *pipeline.Result) error {
	deleted, err := p.client.FlushByPattern(ctx, p.prefix+"*")
	if err != nil {
		return fmt.Errorf("clearing previous indexes: %w", err)
	}
	if deleted > 0 {
		p.logger.Info("stale index keys cleared", "keys", deleted)
	}

	if err := p.publishHash(ctx, "title_index", encodeFields(res.Title)); err != nil {
		return err
	}
	if err := p.publishHash(ctx, "description_index", encodeFields(res.Description)); err != nil {
		return err
	}
	for name, idx := range res.Features {
		if err := p.publishHash(ctx, name, encodeFields(idx)); err != nil {
			return err
		}
	}
	if res.TitlePositional != nil {
		if err := p.publishHash(ctx, "title_positional_index", encodeFields(res.TitlePositional)); err != nil {
			return err
		}
		if err := p.publishHash(ctx, "description_positional_index", encodeFields(res.DescriptionPositional)); err != nil {
			return err
		}
	}
	if err := p.publishHash(ctx, "reviews_index", encodeFields(res.Reviews)); err != nil {
		return err
	}
	return nil
}

func (p *Publisher) publishHash(ctx context.Context, name string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	key := p.prefix + name
	err := resilience.Retry(ctx, "redis publish "+name, resilience.RetryConfig{}, func() error {
		return p.client.HSet(ctx, key, fields)
	})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", name, err)
	}
	p.logger.Info("index published", "key", key, "fields", len(fields))
	return nil
}

// encodeFields JSON-encodes every entry of an index for hash storage.
func encodeFields[V any](idx map[string]V) map[string]any {
	fields := make(map[string]any, len(idx))
	for field, entry := range idx {
		data, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		fields[field] = data
	}
	return fields
}
