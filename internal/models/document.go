package models

import "time"

// Evidence sources.
const (
	SourceRun   = "run"
	SourceInbox = "inbox"
)

// EvidenceDocument is the extracted text of one evidence document, kept for
// full-text search after the run that found it.
type EvidenceDocument struct {
	ID             string                 `json:"id"`
	RunID          string                 `json:"run_id,omitempty"`
	URL            string                 `json:"url,omitempty"`
	Path           string                 `json:"path,omitempty"`
	Title          string                 `json:"title"`
	Company        string                 `json:"company,omitempty"`
	Product        string                 `json:"product,omitempty"`
	Classification DocumentClassification `json:"classification"`
	Location       string                 `json:"location,omitempty"`
	Source         string                 `json:"source"`
	Content        string                 `json:"content"`
	IndexedAt      time.Time              `json:"indexed_at"`
}

// EvidenceHit is one full-text search match.
type EvidenceHit struct {
	ID             string                 `json:"id"`
	Score          float64                `json:"score"`
	URL            string                 `json:"url,omitempty"`
	Path           string                 `json:"path,omitempty"`
	Title          string                 `json:"title"`
	Classification DocumentClassification `json:"classification"`
	Location       string                 `json:"location,omitempty"`
	Fragments      []string               `json:"fragments,omitempty"`
}
