// Package cli provides console output for contract-finder.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/AlosedAG/contract-finder/internal/export"
	"github.com/AlosedAG/contract-finder/internal/models"
)

// OutputFormat is the format for console output.
type OutputFormat string

const (
	// OutputText is a human-readable table with evidence details (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const titleWidth = 48

// ParseOutputFormat parses a format flag value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown output format %q (want text, compact or json)", models.ErrInvalidInput, s)
}

// WriteReport writes a run report to w in the given format.
func WriteReport(w io.Writer, report *models.RunReport, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, report)
	case OutputCompact:
		for i := range report.Results {
			fmt.Fprintln(w, compactLine(&report.Results[i]))
		}
		return nil
	default:
		writeReportText(w, report)
		return nil
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReportText(w io.Writer, report *models.RunReport) {
	subject := fmt.Sprintf("%q", report.Params.Company)
	if report.Params.Product != "" {
		subject += fmt.Sprintf(" %q", report.Params.Product)
	}
	fmt.Fprintf(w, "\nFound %d results for %s (intent %s, %d queries, run %s)\n",
		len(report.Results), subject, report.Params.Intent, len(report.Queries), report.ID)
	for _, s := range report.Stages {
		fmt.Fprintf(w, "  %-11s %-12s processed %d, failed %d\n", s.Name, s.Status, s.Processed, s.Failed)
	}
	fmt.Fprintln(w)
	if len(report.Results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	rows := make([][]string, 0, len(report.Results))
	for i := range report.Results {
		r := &report.Results[i]
		rows = append(rows, []string{
			fmt.Sprint(r.Rank),
			fmt.Sprintf("%.2f", r.FinalScore),
			export.Tier(r.FinalScore),
			r.Location.String(),
			string(r.Classification),
			linkStatus(r),
			Truncate(r.Title, titleWidth),
		})
	}
	Table(w, []string{"#", "Score", "Tier", "Location", "Type", "Link", "Title"}, rows)
	fmt.Fprintln(w)

	for i := range report.Results {
		writeResultDetail(w, &report.Results[i])
	}
	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "%d non-fatal failures:\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  [%s] %s: %s\n", f.Stage, f.Subject, f.Error)
		}
	}
}

func writeResultDetail(w io.Writer, r *models.FinalResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[%d] %s\n", r.Rank, r.Title)
	fmt.Fprintf(w, "    %s\n", r.URL)
	fmt.Fprintf(w, "    Score %.2f (relevance %.2f) | %s | %s\n", r.FinalScore, r.RelevanceScore, r.Classification, r.Location)
	switch r.ExtractionStatus {
	case models.ExtractionExtracted:
		if p := r.TopPricing(); p != nil {
			line := export.PricingLabel(p)
			if p.Label != "" {
				line += " (" + p.Label + ")"
			}
			fmt.Fprintf(w, "    Pricing: %s\n", line)
			if p.Context != "" {
				fmt.Fprintf(w, "      %q\n", TruncateWords(p.Context, 24))
			}
		}
		if len(r.Content.TermMentions) > 0 {
			fmt.Fprintf(w, "    Term: %s\n", strings.Join(r.Content.TermMentions, ", "))
		}
		if d := r.TopDate(); d != nil {
			fmt.Fprintf(w, "    Date: %s %s\n", d.Date, d.Label)
		}
		if len(r.Content.PricingModels) > 0 {
			fmt.Fprintf(w, "    Model: %s\n", strings.Join(r.Content.PricingModels, ", "))
		}
	case models.ExtractionNoText:
		fmt.Fprintln(w, "    Could not extract text (scanned PDF?)")
	case models.ExtractionFailed:
		fmt.Fprintf(w, "    Extraction failed: %s\n", r.ExtractionError)
	}
	if r.Deferred {
		fmt.Fprintln(w, "    (deferred: jurisdiction already represented)")
	}
	if !r.Validated && r.Validation.Reason != "" {
		fmt.Fprintf(w, "    Link issue: %s\n", r.Validation.Reason)
	}
}

func compactLine(r *models.FinalResult) string {
	parts := []string{
		fmt.Sprintf("%d.", r.Rank),
		fmt.Sprintf("%.2f", r.FinalScore),
		r.Location.String(),
		string(r.Classification),
		r.URL,
	}
	if p := r.TopPricing(); p != nil {
		parts = append(parts, export.PricingLabel(p))
	}
	return strings.Join(parts, "\t")
}

func linkStatus(r *models.FinalResult) string {
	switch {
	case r.Validated:
		return "ok"
	case r.Validation.Reason != "" && !r.Validation.Reachable:
		return "dead"
	default:
		return "?"
	}
}

// WriteRuns writes stored run summaries.
func WriteRuns(w io.Writer, runs []models.RunSummary, format OutputFormat) error {
	if format == OutputJSON {
		if runs == nil {
			runs = []models.RunSummary{}
		}
		return writeJSON(w, runs)
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04"),
			strings.TrimSpace(r.Company + " " + r.Product),
			string(r.Intent),
			fmt.Sprint(r.ResultCount),
			fmt.Sprintf("%.2f", r.TopScore),
		})
	}
	if format == OutputCompact {
		for _, row := range rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		return nil
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No stored runs.")
		return nil
	}
	Table(w, []string{"ID", "Started", "Subject", "Intent", "Results", "Top"}, rows)
	return nil
}

// WriteEvidenceHits writes evidence index search hits.
func WriteEvidenceHits(w io.Writer, query string, hits []models.EvidenceHit, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if hits == nil {
			hits = []models.EvidenceHit{}
		}
		return writeJSON(w, hits)
	case OutputCompact:
		for _, h := range hits {
			fmt.Fprintf(w, "%.4f\t%s\t%s\n", h.Score, h.Classification, hitSource(h))
		}
		return nil
	}
	fmt.Fprintf(w, "\nFound %d evidence documents for %q\n\n", len(hits), query)
	for i, h := range hits {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] %.4f | %s | %s\n", i+1, h.Score, h.Classification, h.Title)
		fmt.Fprintf(w, "    %s\n", hitSource(h))
		if h.Location != "" {
			fmt.Fprintf(w, "    %s\n", h.Location)
		}
		for _, frag := range h.Fragments {
			fmt.Fprintf(w, "    … %s\n", TruncateWords(strings.Join(strings.Fields(frag), " "), 40))
		}
	}
	return nil
}

func hitSource(h models.EvidenceHit) string {
	if h.URL != "" {
		return h.URL
	}
	return h.Path
}

// Table writes rows under header with columns padded to display width.
func Table(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}
	writeRow := func(cells []string) {
		var sb strings.Builder
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i < len(widths)-1 {
				sb.WriteString(runewidth.FillRight(cell, widths[i]))
				sb.WriteString("  ")
			} else {
				sb.WriteString(cell)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
	writeRow(header)
	seps := make([]string, len(widths))
	for i, n := range widths {
		seps[i] = strings.Repeat("-", n)
	}
	writeRow(seps)
	for _, row := range rows {
		writeRow(row)
	}
}

// Truncate truncates s to maxLen display columns and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || runewidth.StringWidth(s) <= maxLen {
		return s
	}
	return runewidth.Truncate(s, maxLen, "") + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
