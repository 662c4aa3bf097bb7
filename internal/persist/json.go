// Package persist writes finished index structures to their sinks: the
// pretty-printed JSON files consumed by downstream tooling, and an
// optional Redis publisher for query-side lookups.
package persist

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/ecomsearch/product-index-pipeline/internal/pipeline"
)

// JSONSink writes each index as an indented JSON file, one file per
// index, no metadata wrapper. Files go to a temp path first and are
// renamed on success, so a crash never leaves a partial index behind.
type JSONSink struct {
	dir    string
	logger *slog.Logger
}

// NewJSONSink creates a sink writing into dir.
func NewJSONSink(dir string) *JSONSink {
	return &JSONSink{
		dir:    dir,
		logger: slog.Default().With("component", "json-sink"),
	}
}

// WriteResult writes every index of a pipeline run as an independent
// file.
func (s *JSONSink) WriteResult(res *pipeline.Result) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", s.dir, err)
	}
	files := map[string]any{
		"title_index.json":       res.Title,
		"description_index.json": res.Description,
		"reviews_index.json":     res.Reviews,
	}
	for name, idx := range res.Features {
		files[name+".json"] = idx
	}
	if res.TitlePositional != nil {
		files["title_positional_index.json"] = res.TitlePositional
		files["description_positional_index.json"] = res.DescriptionPositional
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.write(name, files[name]); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONSink) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	data = append(data, '\n')

	finalPath := filepath.Join(s.dir, name)
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming %s: %w", tmpPath, err)
	}
	s.logger.Info("index written", "file", name, "bytes", len(data))
	return nil
}
