// Package ranking scores candidate results from their URL, title and snippet,
// and re-ranks them once document content has been analyzed.
package ranking

import (
	"net/url"
	"path"
	"strings"

	"github.com/AlosedAG/contract-finder/internal/blocklist"
	"github.com/AlosedAG/contract-finder/internal/classify"
	"github.com/AlosedAG/contract-finder/internal/models"
)

// MaxScore is the upper bound of relevance and final scores.
const MaxScore = 10.0

// Signal names, used as scoreBreakdown keys.
const (
	SignalDomainTrust    = "domain_trust"
	SignalNearBlocked    = "near_blocked"
	SignalDocumentType   = "document_type"
	SignalTitlePattern   = "title_pattern"
	SignalCompanyMatch   = "company_match"
	SignalProductMatch   = "product_match"
	SignalCoOccurrence   = "co_occurrence"
	SignalFileType       = "file_type"
	SignalRecency        = "recency"
	SignalMarketingTerms = "marketing_terms"
	SignalUserManual     = "user_manual"
	SignalLoginPage      = "login_page"
)

// ScoringContext provides everything a signal needs, precomputed once per candidate.
type ScoringContext struct {
	Candidate models.CandidateResult
	Company   string
	Product   string

	// Title is the lowercased title.
	Title string
	// URL is the lowercased, percent-decoded URL with separators turned into spaces.
	URL string
	// Path is the lowercased URL path.
	Path string
	// Snippet is the lowercased snippet.
	Snippet string
	// Text is Title and URL joined, the haystack for entity and type matching.
	Text string

	Trust blocklist.Trust
	Hint  models.DocumentClassification
}

// NewScoringContext builds the context for one candidate.
func NewScoringContext(c models.CandidateResult, company, product string, classifier *blocklist.Classifier) *ScoringContext {
	raw := c.URL
	if raw == "" {
		raw = c.NormalizedURL
	}
	decoded := raw
	if d, err := url.QueryUnescape(raw); err == nil {
		decoded = d
	}
	lowerURL := strings.ToLower(decoded)
	p := ""
	if u, err := url.Parse(raw); err == nil {
		p = strings.ToLower(u.Path)
	}

	spaced := strings.NewReplacer("-", " ", "_", " ", "+", " ", ".", " ", "/", " ").Replace(lowerURL)
	title := strings.ToLower(c.Title)

	ctx := &ScoringContext{
		Candidate: c,
		Company:   strings.ToLower(strings.TrimSpace(company)),
		Product:   strings.ToLower(strings.TrimSpace(product)),
		Title:     title,
		URL:       spaced,
		Path:      p,
		Snippet:   strings.ToLower(c.Snippet),
		Text:      title + " " + spaced,
		Hint:      classify.FromHints(decoded, c.Title),
	}
	if classifier != nil {
		ctx.Trust = classifier.Trust(c.Domain)
	} else if c.IsGovDomain {
		ctx.Trust = blocklist.TrustGov
	}
	return ctx
}

// Extension returns the lowercased file extension of the URL path, e.g. ".pdf".
func (ctx *ScoringContext) Extension() string {
	return path.Ext(ctx.Path)
}

// Signal is one independent, bounded scoring component.
type Signal interface {
	// Score returns the signal's contribution; negative for penalties.
	Score(ctx *ScoringContext) float64
	// Name returns the scoreBreakdown key.
	Name() string
}
