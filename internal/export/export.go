// Package export writes a full snapshot of the logbook as JSON or YAML.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"baristalog/internal/database"
	"baristalog/internal/models"
	"baristalog/internal/preferences"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "", "json", "yaml" and "yml". Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", &database.ValidationError{Field: "format", Message: fmt.Sprintf("unsupported export format %q", s)}
}

// ContentType is the HTTP media type for f.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Filename is the suggested download name for f.
func (f Format) Filename() string {
	if f == FormatYAML {
		return "baristalog-export.yaml"
	}
	return "baristalog-export.json"
}

// Snapshot is everything the user has recorded. Images are left out;
// HasImage marks the entities that have one.
type Snapshot struct {
	ExportedAt  time.Time            `json:"exported_at" yaml:"exported_at"`
	Beans       []*models.Bean       `json:"beans" yaml:"beans"`
	Grinders    []*models.Grinder    `json:"grinders" yaml:"grinders"`
	Brewers     []*models.Brewer     `json:"brewers" yaml:"brewers"`
	Extractions []*models.Extraction `json:"extractions" yaml:"extractions"`
	Preferences preferences.Settings `json:"preferences" yaml:"preferences"`
}

// Build reads every collection from store.
func Build(ctx context.Context, store database.Store, prefs *preferences.Service, now time.Time) (*Snapshot, error) {
	beans, err := store.ListBeans(ctx, database.SortNameAsc)
	if err != nil {
		return nil, fmt.Errorf("failed to list beans: %w", err)
	}
	grinders, err := store.ListGrinders(ctx, database.SortNameAsc)
	if err != nil {
		return nil, fmt.Errorf("failed to list grinders: %w", err)
	}
	brewers, err := store.ListBrewers(ctx, database.SortNameAsc)
	if err != nil {
		return nil, fmt.Errorf("failed to list brewers: %w", err)
	}
	extractions, err := store.ListExtractions(ctx, database.SortDateDesc)
	if err != nil {
		return nil, fmt.Errorf("failed to list extractions: %w", err)
	}

	return &Snapshot{
		ExportedAt:  now,
		Beans:       orEmpty(beans),
		Grinders:    orEmpty(grinders),
		Brewers:     orEmpty(brewers),
		Extractions: orEmpty(extractions),
		Preferences: prefs.Snapshot(ctx),
	}, nil
}

// orEmpty keeps empty collections as [] rather than null in the output.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Write encodes s to w in the given format.
func Write(w io.Writer, s *Snapshot, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}
