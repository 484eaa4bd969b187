package models

import "time"

// StageStatus summarizes how a pipeline stage finished.
type StageStatus string

const (
	StageOK          StageStatus = "ok"
	StagePartial     StageStatus = "partial"
	StageRateLimited StageStatus = "rate_limited"
	StageCancelled   StageStatus = "cancelled"
	StageDisabled    StageStatus = "disabled"
	StageSkipped     StageStatus = "skipped"
	StageFailed      StageStatus = "failed"
)

// Stage names used in reports and failure records.
const (
	StageCollection = "collection"
	StageScoring    = "scoring"
	StageValidation = "validation"
	StageExtraction = "extraction"
)

// StageReport records the outcome of one stage.
type StageReport struct {
	Name      string      `json:"name"`
	Status    StageStatus `json:"status"`
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
}

// FailureRecord is a non-fatal error kept with the run.
type FailureRecord struct {
	Stage   string `json:"stage"`
	Subject string `json:"subject"`
	Error   string `json:"error"`
}

// RunReport is everything a completed run produced.
type RunReport struct {
	ID         string          `json:"id"`
	Params     RunParams       `json:"params"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Queries    []SearchQuery   `json:"queries"`
	Stages     []StageReport   `json:"stages"`
	Failures   []FailureRecord `json:"failures,omitempty"`
	Results    []FinalResult   `json:"results"`
}

// Stage returns the report for the named stage, or nil.
func (r *RunReport) Stage(name string) *StageReport {
	for i := range r.Stages {
		if r.Stages[i].Name == name {
			return &r.Stages[i]
		}
	}
	return nil
}

// Confirmed returns the results whose links validated.
func (r *RunReport) Confirmed() []FinalResult {
	out := make([]FinalResult, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Validated {
			out = append(out, res)
		}
	}
	return out
}

// RunSummary is the listing form of a stored run.
type RunSummary struct {
	ID          string    `json:"id"`
	Company     string    `json:"company"`
	Product     string    `json:"product,omitempty"`
	Intent      Intent    `json:"intent"`
	StartedAt   time.Time `json:"started_at"`
	ResultCount int       `json:"result_count"`
	TopScore    float64   `json:"top_score"`
}
