package ranking

// RankingConfig holds all weights used for relevance scoring and content
// re-ranking. Penalties are stored as positive magnitudes.
type RankingConfig struct {
	// Domain trust
	GovDomainScore      float64 `yaml:"gov_domain_score"`      // default: 2.0
	LocalityDomainScore float64 `yaml:"locality_domain_score"` // default: 1.5
	HostedDomainScore   float64 `yaml:"hosted_domain_score"`   // default: 1.5
	RepositoryPathScore float64 `yaml:"repository_path_score"` // default: 0.75
	NearBlockedPenalty  float64 `yaml:"near_blocked_penalty"`  // default: 2.0

	// Document type hinted by URL/title
	OrderFormScore   float64 `yaml:"order_form_score"`   // default: 2.0
	ContractScore    float64 `yaml:"contract_score"`     // default: 1.5
	PricingDocScore  float64 `yaml:"pricing_doc_score"`  // default: 1.5
	StaffReportScore float64 `yaml:"staff_report_score"` // default: 0.75
	RFPScore         float64 `yaml:"rfp_score"`          // default: 0.25

	// High-value title phrases; the best match counts, capped at TitlePatternMax.
	TitlePatterns   map[string]float64 `yaml:"title_patterns"`
	TitlePatternMax float64            `yaml:"title_pattern_max"` // default: 1.5

	// Entity matching in title/URL
	CompanyMatchScore float64 `yaml:"company_match_score"` // default: 1.0
	ProductMatchScore float64 `yaml:"product_match_score"` // default: 1.0
	CoOccurrenceBonus float64 `yaml:"co_occurrence_bonus"` // default: 0.5

	// File type
	PDFScore       float64 `yaml:"pdf_score"`        // default: 1.0
	OfficeDocScore float64 `yaml:"office_doc_score"` // default: 0.5

	// Recency, relative to a fixed reference year so scores never depend on the clock.
	ReferenceYear   int     `yaml:"reference_year"`    // default: 2024
	RecentYearScore float64 `yaml:"recent_year_score"` // default: 0.5
	NearYearScore   float64 `yaml:"near_year_score"`   // default: 0.25
	NearYearWindow  int     `yaml:"near_year_window"`  // default: 2

	// Negative signals
	MarketingPenalty  float64 `yaml:"marketing_penalty"`   // default: 2.0
	UserManualPenalty float64 `yaml:"user_manual_penalty"` // default: 3.0
	LoginPagePenalty  float64 `yaml:"login_page_penalty"`  // default: 2.0

	// Content re-ranking
	PricingFoundBoost      float64 `yaml:"pricing_found_boost"`      // default: 2.0
	MentionBoost           float64 `yaml:"mention_boost"`            // default: 1.5
	CompanyOnlyBoost       float64 `yaml:"company_only_boost"`       // default: 0.5
	NoMentionPenalty       float64 `yaml:"no_mention_penalty"`       // default: 1.5
	TermFoundBoost         float64 `yaml:"term_found_boost"`         // default: 0.5
	UnlikelyPricingPenalty float64 `yaml:"unlikely_pricing_penalty"` // default: 1.0

	// DisabledSignals lists signal names whose contribution is forced to zero.
	DisabledSignals []string `yaml:"disabled_signals"`
}

// DefaultTitlePatterns returns the built-in high-value title phrases.
func DefaultTitlePatterns() map[string]float64 {
	return map[string]float64{
		"order form":                      1.5,
		"renewal order form":              1.5,
		"subscription services agreement": 1.0,
		"master services agreement":       1.0,
		"software license agreement":      1.0,
		"license agreement":               0.75,
		"pricing schedule":                1.0,
		"fee schedule":                    1.0,
		"cost proposal":                   0.75,
		"price proposal":                  0.75,
		"cost exhibit":                    1.0,
		"pricing exhibit":                 1.0,
		"exhibit a":                       0.5,
		"exhibit b":                       0.5,
	}
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		// Domain trust
		GovDomainScore:      2.0,
		LocalityDomainScore: 1.5,
		HostedDomainScore:   1.5,
		RepositoryPathScore: 0.75,
		NearBlockedPenalty:  2.0,

		// Document type
		OrderFormScore:   2.0,
		ContractScore:    1.5,
		PricingDocScore:  1.5,
		StaffReportScore: 0.75,
		RFPScore:         0.25,

		TitlePatterns:   DefaultTitlePatterns(),
		TitlePatternMax: 1.5,

		// Entities
		CompanyMatchScore: 1.0,
		ProductMatchScore: 1.0,
		CoOccurrenceBonus: 0.5,

		// File type
		PDFScore:       1.0,
		OfficeDocScore: 0.5,

		// Recency
		ReferenceYear:   2024,
		RecentYearScore: 0.5,
		NearYearScore:   0.25,
		NearYearWindow:  2,

		// Penalties
		MarketingPenalty:  2.0,
		UserManualPenalty: 3.0,
		LoginPagePenalty:  2.0,

		// Re-ranking
		PricingFoundBoost:      2.0,
		MentionBoost:           1.5,
		CompanyOnlyBoost:       0.5,
		NoMentionPenalty:       1.5,
		TermFoundBoost:         0.5,
		UnlikelyPricingPenalty: 1.0,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *RankingConfig) ApplyDefaults() {
	defaults := DefaultRankingConfig()

	setDefault(&c.GovDomainScore, defaults.GovDomainScore)
	setDefault(&c.LocalityDomainScore, defaults.LocalityDomainScore)
	setDefault(&c.HostedDomainScore, defaults.HostedDomainScore)
	setDefault(&c.RepositoryPathScore, defaults.RepositoryPathScore)
	setDefault(&c.NearBlockedPenalty, defaults.NearBlockedPenalty)

	setDefault(&c.OrderFormScore, defaults.OrderFormScore)
	setDefault(&c.ContractScore, defaults.ContractScore)
	setDefault(&c.PricingDocScore, defaults.PricingDocScore)
	setDefault(&c.StaffReportScore, defaults.StaffReportScore)
	setDefault(&c.RFPScore, defaults.RFPScore)

	if len(c.TitlePatterns) == 0 {
		c.TitlePatterns = defaults.TitlePatterns
	}
	setDefault(&c.TitlePatternMax, defaults.TitlePatternMax)

	setDefault(&c.CompanyMatchScore, defaults.CompanyMatchScore)
	setDefault(&c.ProductMatchScore, defaults.ProductMatchScore)
	setDefault(&c.CoOccurrenceBonus, defaults.CoOccurrenceBonus)

	setDefault(&c.PDFScore, defaults.PDFScore)
	setDefault(&c.OfficeDocScore, defaults.OfficeDocScore)

	if c.ReferenceYear == 0 {
		c.ReferenceYear = defaults.ReferenceYear
	}
	setDefault(&c.RecentYearScore, defaults.RecentYearScore)
	setDefault(&c.NearYearScore, defaults.NearYearScore)
	if c.NearYearWindow == 0 {
		c.NearYearWindow = defaults.NearYearWindow
	}

	setDefault(&c.MarketingPenalty, defaults.MarketingPenalty)
	setDefault(&c.UserManualPenalty, defaults.UserManualPenalty)
	setDefault(&c.LoginPagePenalty, defaults.LoginPagePenalty)

	setDefault(&c.PricingFoundBoost, defaults.PricingFoundBoost)
	setDefault(&c.MentionBoost, defaults.MentionBoost)
	setDefault(&c.CompanyOnlyBoost, defaults.CompanyOnlyBoost)
	setDefault(&c.NoMentionPenalty, defaults.NoMentionPenalty)
	setDefault(&c.TermFoundBoost, defaults.TermFoundBoost)
	setDefault(&c.UnlikelyPricingPenalty, defaults.UnlikelyPricingPenalty)
}

// Disabled reports whether the named signal is switched off.
func (c *RankingConfig) Disabled(name string) bool {
	for _, d := range c.DisabledSignals {
		if d == name {
			return true
		}
	}
	return false
}

func setDefault(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}
