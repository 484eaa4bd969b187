package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/AlosedAG/contract-finder/internal/models"
)

const (
	resultsSheet = "Results"
	pricingSheet = "Pricing"
)

// WriteXLSX writes a workbook with a results sheet in CSV column order and a
// pricing sheet listing every amount found.
func WriteXLSX(w io.Writer, report *models.RunReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return err
	}
	header := make([]interface{}, 0, len(CSVHeader)+2)
	header = append(header, "rank")
	for _, h := range CSVHeader {
		header = append(header, h)
	}
	header = append(header, "title")
	if err := setRow(f, resultsSheet, 1, header); err != nil {
		return err
	}
	for i := range report.Results {
		r := &report.Results[i]
		row := []interface{}{r.Rank, r.FinalScore}
		for _, v := range Row(r)[1:] {
			row = append(row, v)
		}
		row = append(row, r.Title)
		if err := setRow(f, resultsSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(pricingSheet); err != nil {
		return err
	}
	if err := setRow(f, pricingSheet, 1, []interface{}{"url", "amount", "currency", "label", "occurrences", "context"}); err != nil {
		return err
	}
	line := 2
	for _, r := range report.Results {
		for _, p := range r.Content.PricingMentions {
			if err := setRow(f, pricingSheet, line, []interface{}{r.URL, p.Amount, p.Currency, p.Label, p.Occurrences, p.Context}); err != nil {
				return err
			}
			line++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
