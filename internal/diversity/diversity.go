// Package diversity reorders ranked results so no single jurisdiction
// dominates the top of the list. It never removes a result.
package diversity

import (
	"sort"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// DefaultCap is the number of results one jurisdiction may place before the
// rest of its results are deferred.
const DefaultCap = 2

// Tiers assigns each position a tier: the first k results of a jurisdiction
// are tier 0, the next k tier 1, and so on. Empty keys (unknown jurisdiction)
// are always tier 0.
func Tiers(keys []string, k int) []int {
	if k <= 0 {
		k = DefaultCap
	}
	counts := make(map[string]int)
	tiers := make([]int, len(keys))
	for i, key := range keys {
		if key == "" {
			continue
		}
		tiers[i] = counts[key] / k
		counts[key]++
	}
	return tiers
}

// Order returns the permutation that sorts positions by (tier, original index).
func Order(keys []string, k int) []int {
	tiers := Tiers(keys, k)
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return tiers[idx[a]] < tiers[idx[b]]
	})
	return idx
}

// Enforce returns a new slice of results in diversity order. Input must be
// sorted by score descending; within a jurisdiction that order is kept.
// Results beyond the cap are flagged Deferred and Rank is renumbered from 1.
func Enforce(results []models.FinalResult, k int) []models.FinalResult {
	keys := make([]string, len(results))
	for i, r := range results {
		keys[i] = r.Location.Key()
	}
	tiers := Tiers(keys, k)
	out := make([]models.FinalResult, len(results))
	for pos, i := range Order(keys, k) {
		r := results[i]
		r.Deferred = tiers[i] > 0
		r.Rank = pos + 1
		out[pos] = r
	}
	return out
}

// TopN returns at most n results from the front of results.
func TopN(results []models.FinalResult, n int) []models.FinalResult {
	if n <= 0 || n >= len(results) {
		return results
	}
	return results[:n]
}

// CountByJurisdiction tallies known jurisdictions in results.
func CountByJurisdiction(results []models.FinalResult) map[string]int {
	counts := make(map[string]int)
	for _, r := range results {
		if key := r.Location.Key(); key != "" {
			counts[key]++
		}
	}
	return counts
}
