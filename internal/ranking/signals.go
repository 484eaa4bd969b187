package ranking

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/AlosedAG/contract-finder/internal/blocklist"
	"github.com/AlosedAG/contract-finder/internal/models"
)

var repositoryPathRe = regexp.MustCompile(`/documents?/|/files?/|/attachments?/|/contracts?/|/purchasing/|/procurement/|/bids?/|/rfp/|/agenda/|/minutes/|/resolutions?/|/ordinances?/|documentcenter|weblink|/edoc|civicweb|questys|laserfiche|/archive/|agendacenter|boardagenda|boardpacket|showdocument|viewfile`)

var digitsRe = regexp.MustCompile(`[0-9]+`)

// DomainTrustSignal rewards government domains, then document repository paths.
type DomainTrustSignal struct {
	config *RankingConfig
}

// NewDomainTrustSignal creates a DomainTrustSignal.
func NewDomainTrustSignal(config *RankingConfig) *DomainTrustSignal {
	return &DomainTrustSignal{config: config}
}

// Name returns the signal name.
func (s *DomainTrustSignal) Name() string { return SignalDomainTrust }

// Score returns the trust contribution.
func (s *DomainTrustSignal) Score(ctx *ScoringContext) float64 {
	switch ctx.Trust {
	case blocklist.TrustGov:
		return s.config.GovDomainScore
	case blocklist.TrustLocality:
		return s.config.LocalityDomainScore
	case blocklist.TrustHosted:
		return s.config.HostedDomainScore
	}
	if repositoryPathRe.MatchString(ctx.Path + "/") {
		return s.config.RepositoryPathScore
	}
	return 0
}

// DocumentTypeSignal rewards the document type hinted by URL and title.
type DocumentTypeSignal struct {
	config *RankingConfig
}

// NewDocumentTypeSignal creates a DocumentTypeSignal.
func NewDocumentTypeSignal(config *RankingConfig) *DocumentTypeSignal {
	return &DocumentTypeSignal{config: config}
}

// Name returns the signal name.
func (s *DocumentTypeSignal) Name() string { return SignalDocumentType }

// Score returns the contribution for the hinted type.
func (s *DocumentTypeSignal) Score(ctx *ScoringContext) float64 {
	switch ctx.Hint {
	case models.ClassOrderForm:
		return s.config.OrderFormScore
	case models.ClassContractAgreement:
		return s.config.ContractScore
	case models.ClassPricingDocument:
		return s.config.PricingDocScore
	case models.ClassStaffReportMemo:
		return s.config.StaffReportScore
	case models.ClassRFPProposal:
		return s.config.RFPScore
	default:
		return 0
	}
}

// TitlePatternSignal rewards the best high-value phrase in the title.
type TitlePatternSignal struct {
	config *RankingConfig
}

// NewTitlePatternSignal creates a TitlePatternSignal.
func NewTitlePatternSignal(config *RankingConfig) *TitlePatternSignal {
	return &TitlePatternSignal{config: config}
}

// Name returns the signal name.
func (s *TitlePatternSignal) Name() string { return SignalTitlePattern }

// Score returns the largest matching phrase bonus, capped.
func (s *TitlePatternSignal) Score(ctx *ScoringContext) float64 {
	best := 0.0
	for phrase, bonus := range s.config.TitlePatterns {
		if bonus > best && containsPhrase(ctx.Title, phrase) {
			best = bonus
		}
	}
	return min(best, s.config.TitlePatternMax)
}

// EntitySignal rewards the company or product name appearing in title or URL.
type EntitySignal struct {
	config  *RankingConfig
	product bool
}

// NewCompanySignal creates the company match signal.
func NewCompanySignal(config *RankingConfig) *EntitySignal {
	return &EntitySignal{config: config}
}

// NewProductSignal creates the product match signal.
func NewProductSignal(config *RankingConfig) *EntitySignal {
	return &EntitySignal{config: config, product: true}
}

// Name returns the signal name.
func (s *EntitySignal) Name() string {
	if s.product {
		return SignalProductMatch
	}
	return SignalCompanyMatch
}

// Score returns the match contribution.
func (s *EntitySignal) Score(ctx *ScoringContext) float64 {
	if s.product {
		if mentions(ctx, ctx.Product) {
			return s.config.ProductMatchScore
		}
		return 0
	}
	if mentions(ctx, ctx.Company) {
		return s.config.CompanyMatchScore
	}
	return 0
}

// CoOccurrenceSignal adds a bonus when company and product appear together,
// on top of the two individual matches.
type CoOccurrenceSignal struct {
	config *RankingConfig
}

// NewCoOccurrenceSignal creates a CoOccurrenceSignal.
func NewCoOccurrenceSignal(config *RankingConfig) *CoOccurrenceSignal {
	return &CoOccurrenceSignal{config: config}
}

// Name returns the signal name.
func (s *CoOccurrenceSignal) Name() string { return SignalCoOccurrence }

// Score returns the bonus when both names match.
func (s *CoOccurrenceSignal) Score(ctx *ScoringContext) float64 {
	if ctx.Product == "" {
		return 0
	}
	if mentions(ctx, ctx.Company) && mentions(ctx, ctx.Product) {
		return s.config.CoOccurrenceBonus
	}
	return 0
}

// FileTypeSignal rewards document URLs, PDFs most.
type FileTypeSignal struct {
	config *RankingConfig
}

// NewFileTypeSignal creates a FileTypeSignal.
func NewFileTypeSignal(config *RankingConfig) *FileTypeSignal {
	return &FileTypeSignal{config: config}
}

// Name returns the signal name.
func (s *FileTypeSignal) Name() string { return SignalFileType }

// Score returns the file type contribution.
func (s *FileTypeSignal) Score(ctx *ScoringContext) float64 {
	switch ctx.Extension() {
	case ".pdf":
		return s.config.PDFScore
	case ".docx", ".doc", ".xlsx", ".xls", ".odt", ".rtf":
		return s.config.OfficeDocScore
	}
	if strings.Contains(ctx.Title, "[pdf]") || strings.HasSuffix(ctx.Title, " pdf") {
		return s.config.PDFScore
	}
	return 0
}

// RecencySignal rewards the latest year mentioned in title or URL.
type RecencySignal struct {
	config *RankingConfig
}

// NewRecencySignal creates a RecencySignal.
func NewRecencySignal(config *RankingConfig) *RecencySignal {
	return &RecencySignal{config: config}
}

// Name returns the signal name.
func (s *RecencySignal) Name() string { return SignalRecency }

// Score returns the recency contribution relative to the reference year.
func (s *RecencySignal) Score(ctx *ScoringContext) float64 {
	latest := LatestYear(ctx.Text, s.config.ReferenceYear+1)
	switch {
	case latest == 0:
		return 0
	case latest >= s.config.ReferenceYear:
		return s.config.RecentYearScore
	case latest >= s.config.ReferenceYear-s.config.NearYearWindow:
		return s.config.NearYearScore
	default:
		return 0
	}
}

// LatestYear returns the largest plausible year in text that is not after ceiling.
func LatestYear(text string, ceiling int) int {
	latest := 0
	for _, m := range digitsRe.FindAllString(text, -1) {
		if len(m) != 4 {
			continue
		}
		y, err := strconv.Atoi(m)
		if err != nil || y < 1990 || y > ceiling {
			continue
		}
		latest = max(latest, y)
	}
	return latest
}

// mentions reports whether term appears in the title or URL. Multi-word terms
// also match their hyphenated or concatenated URL forms.
func mentions(ctx *ScoringContext, term string) bool {
	if term == "" {
		return false
	}
	if containsPhrase(ctx.Text, term) {
		return true
	}
	joined := strings.Join(strings.Fields(term), "")
	return len(joined) >= 4 && strings.Contains(strings.ReplaceAll(ctx.URL, " ", ""), joined)
}

func containsPhrase(haystack, phrase string) bool {
	return strings.Contains(haystack, strings.Join(strings.Fields(strings.ToLower(phrase)), " "))
}
