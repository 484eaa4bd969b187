// Package collect runs search queries and turns raw hits into deduplicated,
// blocklist-filtered candidates.
package collect

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/AlosedAG/contract-finder/internal/blocklist"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

// Searcher returns the hits for one query. Errors wrapping models.ErrRateLimited
// stop the run from issuing further queries. Implementations may block for as
// long as a human needs to clear a challenge page.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) ([]models.RawResult, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, q models.SearchQuery) ([]models.RawResult, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, q models.SearchQuery) ([]models.RawResult, error) {
	return f(ctx, q)
}

// Outcome is what a collection pass produced.
type Outcome struct {
	Candidates     []models.CandidateResult
	BlockedCount   int
	DuplicateCount int
	QueriesRun     int
	Status         models.StageStatus
	Failures       []models.FailureRecord
}

// Collector turns query results into candidates.
type Collector struct {
	classifier *blocklist.Classifier
	logger     *zap.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Collector) {
		c.logger = l
	}
}

// NewCollector returns a Collector using classifier, or the default table when nil.
func NewCollector(classifier *blocklist.Classifier, opts ...Option) *Collector {
	if classifier == nil {
		classifier = blocklist.Default()
	}
	c := &Collector{classifier: classifier}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = utils.OrNop(c.logger)
	return c
}

// Candidate builds the CandidateResult for one raw hit.
func (c *Collector) Candidate(raw models.RawResult) (models.CandidateResult, error) {
	normalized, err := NormalizeURL(raw.URL)
	if err != nil {
		return models.CandidateResult{}, fmt.Errorf("normalize %q: %w", raw.URL, err)
	}
	raw.URL = Unwrap(raw.URL)
	domain := Domain(raw.URL)
	category, blocked := c.classifier.Classify(domain)
	return models.CandidateResult{
		RawResult:     raw,
		NormalizedURL: normalized,
		Domain:        domain,
		IsBlocked:     blocked,
		BlockCategory: string(category),
		IsGovDomain:   c.classifier.IsGovDomain(domain),
	}, nil
}

// Collect runs queries one at a time in order. Hits are deduplicated by
// normalized URL across all queries, keeping first-seen order, and blocked
// hits are dropped. A failing query is recorded and skipped; a rate-limit
// signal or context cancellation stops further queries but keeps everything
// gathered so far. The error is non-nil only when no searcher is available or
// every query failed.
func (c *Collector) Collect(ctx context.Context, queries []models.SearchQuery, searcher Searcher) (*Outcome, error) {
	out := &Outcome{Status: models.StageOK}
	if searcher == nil {
		out.Status = models.StageFailed
		return out, fmt.Errorf("no searcher configured: %w", models.ErrUnavailable)
	}

	seen := make(map[string]bool)
	failed := 0

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			out.Status = models.StageCancelled
			c.logger.Info("collection cancelled", zap.Int("queries_run", out.QueriesRun))
			break
		}

		hits, err := searcher.Search(ctx, q)
		out.QueriesRun++
		if err != nil {
			if errors.Is(err, models.ErrRateLimited) {
				out.Status = models.StageRateLimited
				out.Failures = append(out.Failures, failure(q, err))
				c.logger.Warn("search rate limited, stopping queries", zap.String("query", q.Text), zap.Error(err))
				break
			}
			if ctx.Err() != nil {
				out.Status = models.StageCancelled
				break
			}
			failed++
			out.Failures = append(out.Failures, failure(q, fmt.Errorf("%w: %v", models.ErrCollectionFailure, err)))
			c.logger.Warn("search failed, skipping query", zap.String("query", q.Text), zap.Error(err))
			continue
		}

		added := 0
		for _, raw := range hits {
			cand, err := c.Candidate(raw)
			if err != nil {
				c.logger.Debug("skipping hit", zap.String("url", raw.URL), zap.Error(err))
				continue
			}
			if cand.IsBlocked {
				out.BlockedCount++
				continue
			}
			if seen[cand.NormalizedURL] {
				out.DuplicateCount++
				continue
			}
			seen[cand.NormalizedURL] = true
			cand.Query = q.Text
			cand.Order = len(out.Candidates)
			out.Candidates = append(out.Candidates, cand)
			added++
		}
		c.logger.Debug("query collected",
			zap.String("query", q.Text),
			zap.Int("hits", len(hits)),
			zap.Int("new", added))
	}

	if failed > 0 && out.Status == models.StageOK {
		out.Status = models.StagePartial
	}
	if len(queries) > 0 && failed == out.QueriesRun && failed == len(queries) {
		out.Status = models.StageFailed
		return out, fmt.Errorf("all %d queries failed: %w", failed, models.ErrUnavailable)
	}
	return out, nil
}

func failure(q models.SearchQuery, err error) models.FailureRecord {
	return models.FailureRecord{Stage: models.StageCollection, Subject: q.Text, Error: err.Error()}
}
