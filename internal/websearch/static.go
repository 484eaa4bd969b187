package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// Static serves results from a fixture file instead of the network. It backs
// offline runs and end-to-end tests.
//
// The fixture is a JSON object mapping query text to results. The "" key,
// when present, answers every query without its own entry.
type Static struct {
	results map[string][]models.RawResult
}

// NewStatic creates a Static searcher from an in-memory table.
func NewStatic(results map[string][]models.RawResult) *Static {
	table := make(map[string][]models.RawResult, len(results))
	for q, rs := range results {
		table[staticKey(q)] = rs
	}
	return &Static{results: table}
}

// LoadStatic reads a fixture file.
func LoadStatic(path string) (*Static, error) {
	if path == "" {
		return nil, fmt.Errorf("static search provider needs static_path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read search fixture: %w", err)
	}
	var table map[string][]models.RawResult
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse search fixture %s: %w", path, err)
	}
	return NewStatic(table), nil
}

// Search implements collect.Searcher.
func (s *Static) Search(ctx context.Context, q models.SearchQuery) ([]models.RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rs, ok := s.results[staticKey(q.Text)]
	if !ok {
		rs = s.results[""]
	}
	out := make([]models.RawResult, len(rs))
	copy(out, rs)
	return out, nil
}

func staticKey(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
