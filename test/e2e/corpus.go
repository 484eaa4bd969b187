package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// Page is one address on the simulated web and how a search engine lists it.
type Page struct {
	URL     string
	Title   string
	Snippet string
	Ext     string
	Status  int
	Lines   []string
	// Unlisted pages are served but never returned by search.
	Unlisted bool
	// Unserved pages are listed by search but answer 404.
	Unserved bool
}

// Corpus is a vendor scenario: the pages search returns for every query.
type Corpus struct {
	Company string
	Product string
	Pages   []Page
	// Extra raw results that point at already listed pages.
	Duplicates []models.RawResult
}

const (
	SanDiegoOrderURL  = "https://sandiego.gov/purchasing/contracts/accela-order-2024.docx"
	AustinFeesURL     = "https://austintexas.gov/purchasing/accela-fee-schedule-2023.xlsx"
	ArchivedURL       = "https://sandiego.gov/archive/accela-2019-agreement.pdf"
	StaffReportURL    = "https://austintexas.gov/council/accela-staff-report.html"
	VendorPricingURL  = "https://www.accela.com/civic-platform/pricing"
	OrderFragmentURL  = SanDiegoOrderURL + "#page=2"
	sanDiegoOrderText = "RENEWAL ORDER FORM"
)

// AccelaCorpus is the San Diego / Austin scenario used across the tests.
func AccelaCorpus() *Corpus {
	return &Corpus{
		Company: "Accela",
		Product: "Civic Platform",
		Pages: []Page{
			{
				URL:     SanDiegoOrderURL,
				Title:   "Accela Civic Platform Renewal Order Form",
				Snippet: "City of San Diego order form for Accela Civic Platform subscription services.",
				Ext:     ".docx",
				Lines: []string{
					"ACCELA " + sanDiegoOrderText,
					"City of San Diego",
					"This Order Form is entered into by Accela, Inc. and the City for Accela Civic Platform subscription services.",
					"Effective Date: July 1, 2024. The initial term is a 3 year term.",
					"Annual Fee: $125,000.00 payable in advance.",
				},
			},
			{
				URL:     AustinFeesURL,
				Title:   "Accela Civic Platform Fee Schedule",
				Snippet: "Austin purchasing fee schedule for land management software.",
				Ext:     ".xlsx",
				Lines: []string{
					"Item\tAnnual Fee",
					"Accela Civic Platform subscription\t$48,500.00",
					"Implementation services\t$12,000.00",
				},
			},
			{
				URL:      ArchivedURL,
				Title:    "Accela Civic Platform Agreement 2019",
				Snippet:  "Archived agreement between the City of San Diego and Accela.",
				Ext:      ".pdf",
				Unserved: true,
			},
			{
				URL:     StaffReportURL,
				Title:   "Council staff report: Accela Civic Platform renewal",
				Snippet: "Staff report recommending renewal of the Accela agreement.",
				Ext:     ".html",
				Lines:   []string{"Staff recommends renewing the Accela Civic Platform agreement."},
			},
			{
				URL:     VendorPricingURL,
				Title:   "Accela Civic Platform pricing",
				Snippet: "Request a demo of Accela Civic Platform.",
				Ext:     ".html",
				Lines:   []string{"Request a demo"},
			},
		},
		Duplicates: []models.RawResult{
			{Title: "Accela Civic Platform Renewal Order Form (page 2)", URL: OrderFragmentURL},
		},
	}
}

var contentTypes = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pdf":  "application/pdf",
	".html": "text/html; charset=utf-8",
	".txt":  "text/plain; charset=utf-8",
}

// Install serves every page on web.
func (c *Corpus) Install(web *Web) error {
	for _, p := range c.Pages {
		if p.Unserved {
			continue
		}
		body, err := DocumentBytes(p.Ext, p.Lines)
		if err != nil {
			return fmt.Errorf("build %s: %w", p.URL, err)
		}
		status := p.Status
		if status == 0 {
			status = http.StatusOK
		}
		web.Handle(p.URL, status, contentTypes[p.Ext], body)
	}
	return nil
}

// RawResults is what search returns for any query.
func (c *Corpus) RawResults() []models.RawResult {
	var out []models.RawResult
	for _, p := range c.Pages {
		if p.Unlisted {
			continue
		}
		out = append(out, models.RawResult{Title: p.Title, URL: p.URL, Snippet: p.Snippet})
	}
	return append(out, c.Duplicates...)
}

// WriteSearchFixture writes the static search provider fixture to path.
func (c *Corpus) WriteSearchFixture(path string) error {
	data, err := json.MarshalIndent(map[string][]models.RawResult{"": c.RawResults()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
