// Package export writes run results as JSON, CSV, XLSX and DOCX files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatDOCX Format = "docx"
)

// CSVHeader is the column order of CSV exports.
var CSVHeader = []string{"score", "location", "document_type", "url", "top_pricing", "top_date"}

// ParseFormat parses a format name, accepting a leading dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case FormatJSON, FormatCSV, FormatXLSX, FormatDOCX:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", models.ErrInvalidInput, s)
}

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return FormatJSON
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/json"
	}
}

// Write writes report in the given format.
func Write(w io.Writer, f Format, report *models.RunReport) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, report.Results)
	case FormatXLSX:
		return WriteXLSX(w, report)
	case FormatDOCX:
		return WriteDOCX(w, report)
	default:
		return WriteJSON(w, report.Results)
	}
}

// Save writes report to path, choosing the format from the extension.
func Save(path string, report *models.RunReport) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(file, FormatFromPath(path), report); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []models.FinalResult) error {
	if results == nil {
		results = []models.FinalResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// ReadJSON reads a JSON array written by WriteJSON.
func ReadJSON(r io.Reader) ([]models.FinalResult, error) {
	var results []models.FinalResult
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return results, nil
}

// LoadJSON reads a JSON export from path.
func LoadJSON(path string) ([]models.FinalResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadJSON(file)
}

// WriteCSV writes one row per result under CSVHeader.
func WriteCSV(w io.Writer, results []models.FinalResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i := range results {
		if err := cw.Write(Row(&results[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row renders r as CSVHeader columns.
func Row(r *models.FinalResult) []string {
	return []string{
		strconv.FormatFloat(r.FinalScore, 'f', 2, 64),
		r.Location.String(),
		string(r.Classification),
		r.URL,
		PricingLabel(r.TopPricing()),
		DateLabel(r.TopDate()),
	}
}

// PricingLabel renders an amount as "125000.00 USD". Nil renders empty.
func PricingLabel(p *models.PricingMention) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(p.Amount, 'f', 2, 64) + " " + p.Currency
}

// DateLabel renders a date mention. Nil renders empty.
func DateLabel(d *models.DateMention) string {
	if d == nil {
		return ""
	}
	return d.Date
}

// Tier buckets a score the way reviewers triage results.
func Tier(score float64) string {
	switch {
	case score >= 7:
		return "HIGH"
	case score >= 5:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
