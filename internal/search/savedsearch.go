// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// SavedSearch is the on-disk record of one search and its ranked results,
// so a downstream stage can reuse the evidence without querying again.
type SavedSearch struct {
	Query    string               `yaml:"query"`
	Count    int                  `yaml:"count"`
	Strategy string               `yaml:"strategy"`
	Scoring  types.ScoringConfig  `yaml:"scoring"`
	Results  []types.ResultRecord `yaml:"results"`
	Summary  SavedSummary         `yaml:"summary"`
}

// SavedSummary stores result statistics and a timestamp.
type SavedSummary struct {
	Total     int       `yaml:"total"`
	NoResults bool      `yaml:"no_results"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteSavedSearch saves a search and its results to a YAML file.
func WriteSavedSearch(path, query string, count int, strategy types.Strategy, cfg types.ScoringConfig, results []types.ResultRecord) error {
	s := SavedSearch{
		Query:    query,
		Count:    count,
		Strategy: strategy.String(),
		Scoring:  cfg,
		Results:  results,
		Summary: SavedSummary{
			Total:     len(results),
			NoResults: len(results) == 1 && results[0].IsSentinel(),
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshaling saved search: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSavedSearch loads a previously saved search from disk.
func ReadSavedSearch(path string) (*SavedSearch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading saved search: %w", err)
	}
	var s SavedSearch
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing saved search: %w", err)
	}
	return &s, nil
}
