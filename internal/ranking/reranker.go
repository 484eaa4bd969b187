package ranking

import (
	"sort"

	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

// Content adjustment names, used as contentAdjustments keys.
const (
	AdjustPricingFound    = "pricing_found"
	AdjustMentioned       = "company_product_mentioned"
	AdjustCompanyOnly     = "company_mentioned"
	AdjustNoMention       = "no_mention"
	AdjustTermFound       = "term_found"
	AdjustPricingUnlikely = "pricing_unlikely"
)

// Reranker recomputes final scores from extracted document content.
type Reranker struct {
	config *RankingConfig
}

// NewReranker creates a Reranker.
func NewReranker(config *RankingConfig) *Reranker {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()
	return &Reranker{config: config}
}

// Rerank returns a copy of r with FinalScore set. Results whose content was
// not extracted keep their relevance score.
func (rr *Reranker) Rerank(r models.FinalResult) models.FinalResult {
	out := r
	out.ContentAdjustments = nil
	if r.ExtractionStatus != models.ExtractionExtracted {
		out.FinalScore = r.RelevanceScore
		return out
	}

	adj := make(map[string]float64)
	c := r.Content
	if c.HasPricing() {
		adj[AdjustPricingFound] = rr.config.PricingFoundBoost
	}
	switch {
	case c.CompanyProductMentioned:
		adj[AdjustMentioned] = rr.config.MentionBoost
	case c.CompanyMentioned:
		adj[AdjustCompanyOnly] = rr.config.CompanyOnlyBoost
	default:
		adj[AdjustNoMention] = -rr.config.NoMentionPenalty
	}
	if len(c.TermMentions) > 0 {
		adj[AdjustTermFound] = rr.config.TermFoundBoost
	}
	if r.Classification.PricingUnlikely() && !c.HasPricing() {
		adj[AdjustPricingUnlikely] = -rr.config.UnlikelyPricingPenalty
	}

	names := make([]string, 0, len(adj))
	for name := range adj {
		names = append(names, name)
	}
	sort.Strings(names)
	score := r.RelevanceScore
	for _, name := range names {
		score += adj[name]
	}
	out.FinalScore = utils.Round2(utils.Clamp(score, 0, MaxScore))
	out.ContentAdjustments = adj
	return out
}

// SortFinal orders results by final score, then relevance score, then
// normalized URL.
func SortFinal(results []models.FinalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		return a.NormalizedURL < b.NormalizedURL
	})
}
