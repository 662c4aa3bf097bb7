package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	apperrors "github.com/ecomsearch/product-index-pipeline/pkg/errors"
	"github.com/ecomsearch/product-index-pipeline/pkg/postgres"
)

const pagesSchema = `
CREATE TABLE IF NOT EXISTS pages (
	id          BIGSERIAL PRIMARY KEY,
	url         TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	features    JSONB NOT NULL DEFAULT '{}',
	reviews     JSONB NOT NULL DEFAULT '[]',
	links       JSONB NOT NULL DEFAULT '[]',
	crawled_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Store persists crawled pages in PostgreSQL and streams them back to
// the indexing pipeline in insertion order. The table deliberately has
// no uniqueness constraint on url: each crawled line is an independent
// document.
type Store struct {
	client *postgres.Client
	logger *slog.Logger
}

// NewStore creates a Store over an established Postgres client.
func NewStore(client *postgres.Client) *Store {
	return &Store{
		client: client,
		logger: slog.Default().With("component", "corpus-store"),
	}
}

// EnsureSchema creates the pages table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.DB.ExecContext(ctx, pagesSchema); err != nil {
		return fmt.Errorf("creating pages table: %w", err)
	}
	return nil
}

// InsertPage stores one crawled page.
func (s *Store) InsertPage(ctx context.Context, rec Record) error {
	if rec.URL == "" {
		return apperrors.ErrMissingURL
	}
	features, err := json.Marshal(orEmptyMap(rec.ProductFeatures))
	if err != nil {
		return fmt.Errorf("marshaling features: %w", err)
	}
	reviews, err := json.Marshal(orEmptySlice(rec.ProductReviews))
	if err != nil {
		return fmt.Errorf("marshaling reviews: %w", err)
	}
	links, err := json.Marshal(orEmptySlice(rec.Links))
	if err != nil {
		return fmt.Errorf("marshaling links: %w", err)
	}
	_, err = s.client.DB.ExecContext(ctx,
		`INSERT INTO pages (url, title, description, features, reviews, links)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.URL, rec.Title, rec.Description, features, reviews, links,
	)
	if err != nil {
		return fmt.Errorf("inserting page %s: %w", rec.URL, err)
	}
	return nil
}

// CountPages returns the number of stored pages.
func (s *Store) CountPages(ctx context.Context) (int, error) {
	var n int
	if err := s.client.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return n, nil
}

// Stream opens a cursor over all pages in insertion order. The returned
// source must be closed by the caller.
func (s *Store) Stream(ctx context.Context) (*StoreSource, error) {
	rows, err := s.client.DB.QueryContext(ctx,
		`SELECT url, title, description, features, reviews, links
		 FROM pages ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	return &StoreSource{rows: rows, logger: s.logger}, nil
}

// StoreSource streams Documents out of the pages table. Rows whose
// JSON columns fail to decode are skipped and counted, mirroring the
// file reader's skip policy.
type StoreSource struct {
	rows    *sql.Rows
	skipped int
	logger  *slog.Logger
}

// Next returns the next document, or io.EOF when the cursor is
// exhausted.
func (s *StoreSource) Next() (*Document, error) {
	for s.rows.Next() {
		var rec Record
		var features, reviews, links []byte
		if err := s.rows.Scan(&rec.URL, &rec.Title, &rec.Description, &features, &reviews, &links); err != nil {
			return nil, fmt.Errorf("scanning page row: %w", err)
		}
		if err := decodePageColumns(&rec, features, reviews, links); err != nil {
			s.skipped++
			s.logger.Warn("skipping undecodable page row",
				"url", rec.URL,
				"error", err,
			)
			continue
		}
		return NewDocument(rec), nil
	}
	if err := s.rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pages: %w", err)
	}
	return nil, io.EOF
}

// Skipped reports how many rows were dropped as undecodable.
func (s *StoreSource) Skipped() int {
	return s.skipped
}

// Close releases the underlying cursor.
func (s *StoreSource) Close() error {
	return s.rows.Close()
}

func decodePageColumns(rec *Record, features, reviews, links []byte) error {
	if err := json.Unmarshal(features, &rec.ProductFeatures); err != nil {
		return fmt.Errorf("%w: features: %v", apperrors.ErrMalformedRecord, err)
	}
	if err := json.Unmarshal(reviews, &rec.ProductReviews); err != nil {
		return fmt.Errorf("%w: reviews: %v", apperrors.ErrMalformedRecord, err)
	}
	if err := json.Unmarshal(links, &rec.Links); err != nil {
		return fmt.Errorf("%w: links: %v", apperrors.ErrMalformedRecord, err)
	}
	return nil
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func orEmptySlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
