// Package storage persists discovery runs and their results.
package storage

import (
	"context"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// Store defines run persistence operations.
type Store interface {
	// Run operations
	SaveRun(ctx context.Context, report *models.RunReport) error
	GetRun(ctx context.Context, id string) (*models.RunReport, error)
	ListRuns(ctx context.Context, offset, limit int) ([]models.RunSummary, error)
	DeleteRun(ctx context.Context, id string) error

	// Result queries across runs
	TopResults(ctx context.Context, filter ResultFilter) ([]StoredResult, error)

	// Stats
	CountRuns(ctx context.Context) (int64, error)

	Close() error
}

// ResultFilter narrows TopResults. Zero fields match everything.
type ResultFilter struct {
	Company       string
	MinScore      float64
	ConfirmedOnly bool
	Limit         int
}

// StoredResult is a persisted FinalResult with the run it came from.
type StoredResult struct {
	RunID string `json:"run_id"`
	models.FinalResult
}
