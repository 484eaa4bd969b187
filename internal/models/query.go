package models

import (
	"fmt"
	"strings"
)

// Intent selects which contract vocabulary a run searches for.
type Intent string

const (
	IntentLicense        Intent = "license"
	IntentImplementation Intent = "implementation"
	IntentBoth           Intent = "both"
)

// ParseIntent maps user input to an Intent. Empty input means IntentBoth.
func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "3":
		return IntentBoth, nil
	case "license", "licensing", "1":
		return IntentLicense, nil
	case "implementation", "impl", "2":
		return IntentImplementation, nil
	default:
		return "", &InputError{Field: "intent", Value: s, Wrapped: ErrInvalidInput}
	}
}

// SearchQuery is one generated search string. Immutable once generated.
type SearchQuery struct {
	Text     string `json:"text"`
	Intent   Intent `json:"intent"`
	Category string `json:"category,omitempty"`
}

// RunParams are the inputs of a single discovery run.
type RunParams struct {
	Company    string `json:"company"`
	Product    string `json:"product,omitempty"`
	Intent     Intent `json:"intent"`
	QueryCount int    `json:"query_count"`
}

// Validate checks run parameters and fills the default intent.
func (p *RunParams) Validate() error {
	p.Company = strings.TrimSpace(p.Company)
	p.Product = strings.TrimSpace(p.Product)
	if p.Company == "" {
		return &InputError{Field: "company", Value: p.Company, Wrapped: ErrInvalidInput}
	}
	if p.QueryCount <= 0 {
		return &InputError{Field: "query_count", Value: fmt.Sprint(p.QueryCount), Wrapped: ErrInvalidInput}
	}
	if p.Intent == "" {
		p.Intent = IntentBoth
	}
	if _, err := ParseIntent(string(p.Intent)); err != nil {
		return err
	}
	return nil
}
