package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gingfrederik/docx"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// WriteDOCX writes a readable run report. The docx library only saves to
// disk, so the document is staged in a temp directory.
func WriteDOCX(w io.Writer, report *models.RunReport) error {
	dir, err := os.MkdirTemp("", "contractfinder-docx-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "report.docx")
	if err := buildDOCX(report).Save(path); err != nil {
		return fmt.Errorf("save docx: %w", err)
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(w, file)
	return err
}

func buildDOCX(report *models.RunReport) *docx.File {
	f := docx.NewFile()

	title := "Contract evidence: " + report.Params.Company
	if report.Params.Product != "" {
		title += " " + report.Params.Product
	}
	f.AddParagraph().AddText(title).Size(20)
	f.AddParagraph().AddText(fmt.Sprintf("Run %s, %s, intent %s",
		report.ID, report.StartedAt.Format("2006-01-02 15:04"), report.Params.Intent))
	for _, s := range report.Stages {
		f.AddParagraph().AddText(fmt.Sprintf("%s: %s (%d processed, %d failed)", s.Name, s.Status, s.Processed, s.Failed))
	}
	f.AddParagraph()

	for i := range report.Results {
		r := &report.Results[i]
		f.AddParagraph().AddText(fmt.Sprintf("%d. %s", r.Rank, r.Title)).Size(14)
		f.AddParagraph().AddText(r.URL)
		f.AddParagraph().AddText(fmt.Sprintf("Score %.2f (%s), relevance %.2f, %s, %s",
			r.FinalScore, Tier(r.FinalScore), r.RelevanceScore, r.Classification, r.Location))
		if p := r.TopPricing(); p != nil {
			line := "Pricing: " + PricingLabel(p)
			if p.Label != "" {
				line += " (" + p.Label + ")"
			}
			f.AddParagraph().AddText(line)
			if p.Context != "" {
				f.AddParagraph().AddText("  \"" + p.Context + "\"")
			}
		}
		if len(r.Content.TermMentions) > 0 {
			f.AddParagraph().AddText("Term: " + strings.Join(r.Content.TermMentions, ", "))
		}
		if d := r.TopDate(); d != nil {
			f.AddParagraph().AddText(strings.TrimSpace("Date: " + d.Date + " " + d.Label))
		}
		if len(r.Content.IncludedItems) > 0 {
			f.AddParagraph().AddText("Includes: " + strings.Join(r.Content.IncludedItems, ", "))
		}
		if !r.Validated && r.Validation.Reason != "" {
			f.AddParagraph().AddText("Link: " + r.Validation.Reason)
		}
		f.AddParagraph()
	}
	if len(report.Failures) > 0 {
		f.AddParagraph().AddText("Failures").Size(14)
		for _, fr := range report.Failures {
			f.AddParagraph().AddText(fmt.Sprintf("- [%s] %s: %s", fr.Stage, fr.Subject, fr.Error))
		}
	}
	return f
}
