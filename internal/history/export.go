// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	GeneratedAt time.Time             `json:"generated_at" yaml:"generated_at"`
	Stats       types.ProcessingStats `json:"stats" yaml:"stats"`
	Requests    []Record              `json:"requests" yaml:"requests"`
	Entries     []types.LogEntry      `json:"entries" yaml:"entries"`
}

func (s *Store) export(ctx context.Context, f Filter) (Export, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return Export{}, err
	}
	requests, err := s.Requests(ctx, 0)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	entries, err := s.Entries(ctx, f)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	return Export{
		GeneratedAt: time.Now().UTC(),
		Stats:       stats,
		Requests:    requests,
		Entries:     entries,
	}, nil
}

// ExportYAML writes the stored history to w. f filters the entries.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, f Filter) error {
	doc, err := s.export(ctx, f)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the stored history to w. f filters the entries.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, f Filter) error {
	doc, err := s.export(ctx, f)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
