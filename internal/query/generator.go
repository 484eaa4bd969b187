// Package query expands a vendor and product into search strings aimed at
// procurement documents.
package query

import (
	"strings"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// Template is one keyword phrase appended to the vendor/product terms.
// Scoped templates carry a site restriction and are never combined pairwise.
type Template struct {
	Phrase   string
	Category string
	Scoped   bool
}

var leadTemplates = []Template{
	{Phrase: "order form", Category: "order_form"},
	{Phrase: "renewal order form", Category: "order_form"},
	{Phrase: "subscription services agreement", Category: "agreement"},
	{Phrase: "master services agreement", Category: "agreement"},
	{Phrase: "pricing schedule", Category: "pricing"},
	{Phrase: "fee schedule", Category: "pricing"},
	{Phrase: "cost proposal", Category: "pricing"},
}

var licenseTemplates = []Template{
	{Phrase: "software license agreement", Category: "software_license"},
	{Phrase: "SaaS agreement", Category: "software_license"},
	{Phrase: "license fee", Category: "software_license"},
}

var implementationTemplates = []Template{
	{Phrase: "implementation services agreement", Category: "implementation"},
	{Phrase: "statement of work", Category: "implementation"},
	{Phrase: "professional services agreement", Category: "implementation"},
}

var tailTemplates = []Template{
	{Phrase: "contract", Category: "contract"},
	{Phrase: "agreement", Category: "agreement"},
	{Phrase: "city contract", Category: "contract"},
	{Phrase: "county contract", Category: "contract"},
	{Phrase: "contract renewal", Category: "contract"},
	{Phrase: "purchase order", Category: "order_form"},
	{Phrase: "pricing", Category: "pricing"},
}

var scopedTemplates = []Template{
	{Phrase: "staff report", Category: "staff_report", Scoped: true},
	{Phrase: "contract site:.gov", Category: "contract", Scoped: true},
	{Phrase: "order form site:.gov", Category: "order_form", Scoped: true},
	{Phrase: "contract site:civicweb.net", Category: "civicweb", Scoped: true},
	{Phrase: "agreement site:legistar.com", Category: "civicweb", Scoped: true},
}

// Templates returns the ordered vocabulary for an intent, highest value first.
func Templates(intent models.Intent) []Template {
	out := make([]Template, 0, 32)
	out = append(out, leadTemplates...)
	switch intent {
	case models.IntentLicense:
		out = append(out, licenseTemplates...)
	case models.IntentImplementation:
		out = append(out, implementationTemplates...)
	default:
		out = append(out, licenseTemplates...)
		out = append(out, implementationTemplates...)
	}
	out = append(out, tailTemplates...)
	out = append(out, scopedTemplates...)
	return out
}

// Generator builds query lists. The zero value uses the built-in vocabulary.
type Generator struct {
	templates func(models.Intent) []Template
}

// NewGenerator returns a Generator over the built-in vocabulary.
func NewGenerator() *Generator {
	return &Generator{templates: Templates}
}

// Generate returns up to n distinct queries. Single templates come first; when
// they run out, unscoped templates are combined pairwise (i<j) until n is reached
// or the combinations are exhausted.
func (g *Generator) Generate(company, product string, intent models.Intent, n int) ([]models.SearchQuery, error) {
	params := models.RunParams{Company: company, Product: product, Intent: intent, QueryCount: n}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	tf := g.templates
	if tf == nil {
		tf = Templates
	}
	templates := tf(params.Intent)
	base := subject(params.Company, params.Product)

	keywords := make([]Template, 0, len(templates))
	for _, t := range templates {
		if !t.Scoped {
			keywords = append(keywords, t)
		}
	}
	// QueryCount has no upper bound; size by what can actually be produced.
	limit := min(n, len(templates)+len(keywords)*(len(keywords)-1)/2)

	queries := make([]models.SearchQuery, 0, limit)
	seen := make(map[string]bool, limit)
	add := func(text, category string) bool {
		key := strings.ToLower(text)
		if seen[key] {
			return false
		}
		seen[key] = true
		queries = append(queries, models.SearchQuery{Text: text, Intent: params.Intent, Category: category})
		return len(queries) >= n
	}

	for _, t := range templates {
		if add(base+" "+t.Phrase, t.Category) {
			return queries, nil
		}
	}

	for i := 0; i < len(keywords); i++ {
		for j := i + 1; j < len(keywords); j++ {
			if add(base+" "+keywords[i].Phrase+" "+keywords[j].Phrase, "combined") {
				return queries, nil
			}
		}
	}
	return queries, nil
}

func subject(company, product string) string {
	s := quote(company)
	if product != "" {
		s += " " + quote(product)
	}
	return s
}

func quote(s string) string {
	return `"` + strings.Join(strings.Fields(strings.ReplaceAll(s, `"`, "")), " ") + `"`
}
