package ranking

import (
	"sort"

	"github.com/AlosedAG/contract-finder/internal/blocklist"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

// Scorer combines all signals into a relevance score.
type Scorer struct {
	config     *RankingConfig
	classifier *blocklist.Classifier
	signals    []Signal
}

// NewScorer creates a Scorer with the given configuration. The classifier
// supplies domain trust; nil falls back to the candidate's IsGovDomain flag.
func NewScorer(config *RankingConfig, classifier *blocklist.Classifier) *Scorer {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()

	return &Scorer{
		config:     config,
		classifier: classifier,
		signals:    DefaultSignals(config),
	}
}

// DefaultSignals returns the built-in signals in breakdown order.
func DefaultSignals(config *RankingConfig) []Signal {
	return []Signal{
		NewDomainTrustSignal(config),
		NewNearBlockedSignal(config),
		NewDocumentTypeSignal(config),
		NewTitlePatternSignal(config),
		NewCompanySignal(config),
		NewProductSignal(config),
		NewCoOccurrenceSignal(config),
		NewFileTypeSignal(config),
		NewRecencySignal(config),
		NewMarketingSignal(config),
		NewUserManualSignal(config),
		NewLoginPageSignal(config),
	}
}

// WithSignals replaces the signal set.
func (s *Scorer) WithSignals(signals []Signal) *Scorer {
	s.signals = signals
	return s
}

// Score computes the relevance score of one candidate. The breakdown keeps
// every nonzero contribution before clamping.
func (s *Scorer) Score(c models.CandidateResult, company, product string) models.ScoredResult {
	ctx := NewScoringContext(c, company, product, s.classifier)
	breakdown := make(map[string]float64)

	total := 0.0
	for _, sig := range s.signals {
		if s.config.Disabled(sig.Name()) {
			continue
		}
		v := sig.Score(ctx)
		if v == 0 {
			continue
		}
		breakdown[sig.Name()] = v
		total += v
	}

	return models.ScoredResult{
		CandidateResult: c,
		RelevanceScore:  utils.Round2(utils.Clamp(total, 0, MaxScore)),
		ScoreBreakdown:  breakdown,
		HintedType:      ctx.Hint,
	}
}

// ScoreAll scores every unblocked candidate and sorts by score descending,
// ties broken by first-seen order.
func (s *Scorer) ScoreAll(candidates []models.CandidateResult, company, product string) []models.ScoredResult {
	results := make([]models.ScoredResult, 0, len(candidates))
	for _, c := range candidates {
		if c.IsBlocked {
			continue
		}
		results = append(results, s.Score(c, company, product))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].Order < results[j].Order
	})

	return results
}

// GetConfig returns the ranking configuration.
func (s *Scorer) GetConfig() *RankingConfig {
	return s.config
}
