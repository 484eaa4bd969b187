package ranking

import (
	"regexp"
	"strings"

	"github.com/AlosedAG/contract-finder/internal/blocklist"
)

var marketingTerms = []string{
	"free trial", "request a demo", "request demo", "book a demo", "pricing plans",
	"webinar", "case study", "customer story", "success story", "datasheet",
	"brochure", "press release", "why choose", "top 10", "best software",
	"alternatives", " vs ", "compare ", "reviews", "buyer's guide", "ebook",
}

var userDocRe = regexp.MustCompile(`user[ _-]?guide|user's guide|how[ _-]?to\b|instructions|tutorial|help[ _-]?doc|getting[ _-]?started|quick[ _-]?start|admin(istrator)?[ _-]?guide|scripting[ _-]?guide|planning[ _-]?guide|system[ _-]?planning|concepts[ _-]?guide|training|glossary|\bfaq\b|submi(ssion|ttal)[ _-]?guide|online permitting system|release notes|view and manage`)

var (
	tocLeaderRe = regexp.MustCompile(`\.{4,}\s*\d+`)
	tocWordsRe  = regexp.MustCompile(`\b(chapter|section)\s+\d+`)
	loginPathRe = regexp.MustCompile(`(login|signin|sign-in|logon|welcome|default)\.aspx?$|/(login|signin|sign-in|logon)/?$`)
)

// nearBlockedWords mark hosts that behave like vendor or aggregator sites
// without being on the blocklist.
var nearBlockedWords = []string{"partner", "reseller", "marketplace", "review", "compare", "alternatives", "softwareadvice", "directory"}

// NearBlockedSignal penalizes non-government hosts that look like vendor or
// aggregator sites the blocklist does not name.
type NearBlockedSignal struct {
	config *RankingConfig
}

// NewNearBlockedSignal creates a NearBlockedSignal.
func NewNearBlockedSignal(config *RankingConfig) *NearBlockedSignal {
	return &NearBlockedSignal{config: config}
}

// Name returns the signal name.
func (s *NearBlockedSignal) Name() string { return SignalNearBlocked }

// Score returns the penalty, or zero.
func (s *NearBlockedSignal) Score(ctx *ScoringContext) float64 {
	if ctx.Trust != blocklist.TrustNone {
		return 0
	}
	host := strings.ReplaceAll(strings.ToLower(ctx.Candidate.Domain), "-", "")
	if company := strings.Join(strings.Fields(ctx.Company), ""); len(company) >= 4 && strings.Contains(host, company) {
		return -s.config.NearBlockedPenalty
	}
	for _, w := range nearBlockedWords {
		if strings.Contains(host, w) {
			return -s.config.NearBlockedPenalty
		}
	}
	return 0
}

// MarketingSignal penalizes generic marketing language in title or URL.
type MarketingSignal struct {
	config *RankingConfig
}

// NewMarketingSignal creates a MarketingSignal.
func NewMarketingSignal(config *RankingConfig) *MarketingSignal {
	return &MarketingSignal{config: config}
}

// Name returns the signal name.
func (s *MarketingSignal) Name() string { return SignalMarketingTerms }

// Score returns the penalty, or zero.
func (s *MarketingSignal) Score(ctx *ScoringContext) float64 {
	text := " " + ctx.Text + " "
	for _, term := range marketingTerms {
		if strings.Contains(text, term) {
			return -s.config.MarketingPenalty
		}
	}
	return 0
}

// UserManualSignal penalizes user documentation: guide-like titles or URLs,
// and snippets that read like a table of contents.
type UserManualSignal struct {
	config *RankingConfig
}

// NewUserManualSignal creates a UserManualSignal.
func NewUserManualSignal(config *RankingConfig) *UserManualSignal {
	return &UserManualSignal{config: config}
}

// Name returns the signal name.
func (s *UserManualSignal) Name() string { return SignalUserManual }

// Score returns the penalty, or zero.
func (s *UserManualSignal) Score(ctx *ScoringContext) float64 {
	if userDocRe.MatchString(ctx.Title) || userDocRe.MatchString(ctx.Path) {
		return -s.config.UserManualPenalty
	}
	if LooksLikeTOC(ctx.Snippet) {
		return -s.config.UserManualPenalty
	}
	return 0
}

// LooksLikeTOC reports whether text resembles a table of contents.
func LooksLikeTOC(text string) bool {
	text = strings.ToLower(text)
	if strings.Contains(text, "table of contents") {
		return true
	}
	if len(tocLeaderRe.FindAllStringIndex(text, -1)) >= 2 {
		return true
	}
	return len(tocWordsRe.FindAllStringIndex(text, -1)) >= 3
}

// LoginPageSignal penalizes login and landing pages.
type LoginPageSignal struct {
	config *RankingConfig
}

// NewLoginPageSignal creates a LoginPageSignal.
func NewLoginPageSignal(config *RankingConfig) *LoginPageSignal {
	return &LoginPageSignal{config: config}
}

// Name returns the signal name.
func (s *LoginPageSignal) Name() string { return SignalLoginPage }

// Score returns the penalty, or zero.
func (s *LoginPageSignal) Score(ctx *ScoringContext) float64 {
	if loginPathRe.MatchString(ctx.Path) {
		return -s.config.LoginPagePenalty
	}
	return 0
}
