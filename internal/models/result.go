package models

import "strings"

// RawResult is one hit as returned by a search collaborator.
type RawResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// CandidateResult is a RawResult after normalization and blocklist lookup.
type CandidateResult struct {
	RawResult
	NormalizedURL string `json:"normalized_url"`
	Domain        string `json:"domain"`
	IsBlocked     bool   `json:"is_blocked"`
	BlockCategory string `json:"block_category,omitempty"`
	IsGovDomain   bool   `json:"is_gov_domain"`
	Query         string `json:"query,omitempty"`
	Order         int    `json:"order"`
}

// ScoredResult is a CandidateResult with its relevance score.
// ScoreBreakdown maps signal name to its contribution before clamping.
type ScoredResult struct {
	CandidateResult
	RelevanceScore float64                `json:"relevance_score"`
	ScoreBreakdown map[string]float64     `json:"score_breakdown"`
	HintedType     DocumentClassification `json:"hinted_type"`
}

// JurisdictionType is the level of government a document belongs to.
type JurisdictionType string

const (
	JurisdictionCity    JurisdictionType = "city"
	JurisdictionCounty  JurisdictionType = "county"
	JurisdictionState   JurisdictionType = "state"
	JurisdictionUnknown JurisdictionType = "unknown"
)

// LocationMatch is the single best jurisdiction detected for a result.
type LocationMatch struct {
	JurisdictionType JurisdictionType `json:"jurisdiction_type"`
	Name             string           `json:"name,omitempty"`
	StateCode        string           `json:"state_code,omitempty"`
	Source           string           `json:"source,omitempty"`
}

// UnknownLocation is returned when no gazetteer entry matched.
func UnknownLocation() LocationMatch {
	return LocationMatch{JurisdictionType: JurisdictionUnknown}
}

// Known reports whether a jurisdiction was detected.
func (l LocationMatch) Known() bool {
	return l.JurisdictionType != "" && l.JurisdictionType != JurisdictionUnknown
}

// Key identifies the jurisdiction for diversity accounting. Empty when unknown.
func (l LocationMatch) Key() string {
	if !l.Known() {
		return ""
	}
	return string(l.JurisdictionType) + ":" + strings.ToLower(l.Name) + ":" + l.StateCode
}

// String renders the location for display, e.g. "San Diego, CA".
func (l LocationMatch) String() string {
	if !l.Known() {
		return "Unknown"
	}
	switch {
	case l.JurisdictionType == JurisdictionState:
		return l.Name
	case l.StateCode != "":
		return l.Name + ", " + l.StateCode
	default:
		return l.Name
	}
}

// PricingMention is one distinct amount found in a document.
// Contexts keeps the surrounding text of every raw occurrence.
type PricingMention struct {
	Amount      float64  `json:"amount"`
	Currency    string   `json:"currency"`
	Label       string   `json:"label,omitempty"`
	Context     string   `json:"context"`
	Occurrences int      `json:"occurrences"`
	Contexts    []string `json:"contexts,omitempty"`
}

// DateMention is a date found in a document. Date is ISO formatted when it could be parsed.
type DateMention struct {
	Date    string `json:"date"`
	Label   string `json:"label,omitempty"`
	Context string `json:"context"`
}

// ExtractedContent is the evidence mined from a document's text.
type ExtractedContent struct {
	PricingMentions         []PricingMention `json:"pricing_mentions,omitempty"`
	Dates                   []DateMention    `json:"dates,omitempty"`
	TermMentions            []string         `json:"term_mentions,omitempty"`
	CompanyProductMentioned bool             `json:"company_product_mentioned"`
	CompanyMentioned        bool             `json:"company_mentioned"`
	ProductMentioned        bool             `json:"product_mentioned"`
	PricingModels           []string         `json:"pricing_models,omitempty"`
	IncludedItems           []string         `json:"included_items,omitempty"`
	TextLength              int              `json:"text_length"`
}

// HasPricing reports whether any amount was found.
func (c ExtractedContent) HasPricing() bool { return len(c.PricingMentions) > 0 }

// Validation is the outcome of a link check.
type Validation struct {
	Reachable   bool   `json:"reachable"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// ExtractionStatus records what happened when content extraction was attempted.
type ExtractionStatus string

const (
	ExtractionNotAttempted ExtractionStatus = "not_attempted"
	ExtractionExtracted    ExtractionStatus = "extracted"
	ExtractionNoText       ExtractionStatus = "no_text"
	ExtractionFailed       ExtractionStatus = "failed"
	ExtractionDisabled     ExtractionStatus = "disabled"
	ExtractionSkipped      ExtractionStatus = "skipped"
)

// FinalResult is the unit returned and persisted by a run.
type FinalResult struct {
	ScoredResult
	Location           LocationMatch          `json:"location"`
	Classification     DocumentClassification `json:"classification"`
	Content            ExtractedContent       `json:"content"`
	FinalScore         float64                `json:"final_score"`
	Validated          bool                   `json:"validated"`
	Validation         Validation             `json:"validation"`
	ExtractionStatus   ExtractionStatus       `json:"extraction_status"`
	ExtractionError    string                 `json:"extraction_error,omitempty"`
	ContentAdjustments map[string]float64     `json:"content_adjustments,omitempty"`
	Rank               int                    `json:"rank"`
	Deferred           bool                   `json:"deferred,omitempty"`
}

// TopPricing returns the largest amount found, or nil.
func (r *FinalResult) TopPricing() *PricingMention {
	if len(r.Content.PricingMentions) == 0 {
		return nil
	}
	return &r.Content.PricingMentions[0]
}

// TopDate returns the first date found, or nil.
func (r *FinalResult) TopDate() *DateMention {
	if len(r.Content.Dates) == 0 {
		return nil
	}
	return &r.Content.Dates[0]
}
