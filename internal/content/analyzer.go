// Package content mines extracted document text for pricing, dates, contract
// terms and vendor mentions.
package content

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

// Options bounds what the analyzer keeps.
type Options struct {
	MinAmount     float64 `yaml:"min_amount"`     // default: 100
	MaxPricing    int     `yaml:"max_pricing"`    // default: 8
	MaxDates      int     `yaml:"max_dates"`      // default: 8
	ContextRadius int     `yaml:"context_radius"` // default: 60
}

// DefaultOptions returns the default analyzer options.
func DefaultOptions() Options {
	return Options{
		MinAmount:     100,
		MaxPricing:    8,
		MaxDates:      8,
		ContextRadius: 60,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (o *Options) ApplyDefaults() {
	d := DefaultOptions()
	if o.MinAmount == 0 {
		o.MinAmount = d.MinAmount
	}
	if o.MaxPricing == 0 {
		o.MaxPricing = d.MaxPricing
	}
	if o.MaxDates == 0 {
		o.MaxDates = d.MaxDates
	}
	if o.ContextRadius == 0 {
		o.ContextRadius = d.ContextRadius
	}
}

type labelled struct {
	re    *regexp.Regexp
	label string
}

// amountExpr requires a currency marker so years and counts after a price
// label are not read as amounts.
const amountExpr = `(?:\$|\busd\s?)\s?([0-9][0-9,]*(?:\.[0-9]{2})?)`

var pricePatterns = []labelled{
	{regexp.MustCompile(`(?i)(?:total|contract|agreement)\s*(?:amount|value|price|cost)[:\s]*` + amountExpr), "Total Value"},
	{regexp.MustCompile(`(?i)not[- ]to[- ]exceed[:\s]*` + amountExpr), "Not to Exceed"},
	{regexp.MustCompile(`(?i)(?:annual|yearly)\s*(?:fee|cost|subscription|amount)[:\s]*` + amountExpr), "Annual Fee"},
	{regexp.MustCompile(`(?i)monthly\s*(?:fee|cost|subscription)[:\s]*` + amountExpr), "Monthly Fee"},
	{regexp.MustCompile(`(?i)(?:one[- ]time|implementation|setup)\s*(?:fee|cost)[:\s]*` + amountExpr), "One-time Fee"},
	{regexp.MustCompile(`(?i)licen[sc]e\s*(?:fee|cost)[:\s]*` + amountExpr), "License Fee"},
	{regexp.MustCompile(`(?i)(?:maintenance|support)\s*(?:fee|cost)[:\s]*` + amountExpr), "Maintenance Fee"},
	{regexp.MustCompile(`(?i)(?:professional services|consulting|implementation services)[:\s]*` + amountExpr), "Services Fee"},
	{regexp.MustCompile(`(?i)\$([0-9][0-9,]*(?:\.[0-9]{2})?)\s*(?:per year|annually|/\s?year|/\s?yr)`), "Per Year"},
	{regexp.MustCompile(`(?i)\$([0-9][0-9,]*(?:\.[0-9]{2})?)\s*(?:per month|monthly|/\s?month|/\s?mo)`), "Per Month"},
}

// genericPrice catches currency amounts the labelled patterns miss.
var genericPrice = regexp.MustCompile(`(?i)(?:\$|\busd\s?)\s?([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]{2})?|[0-9]+(?:\.[0-9]{2})?)`)

// contextLabels name a generic amount from the words just before it.
var contextLabels = []struct {
	word  string
	label string
}{
	{"not to exceed", "Not to Exceed"},
	{"total", "Total Value"},
	{"annual", "Annual Fee"},
	{"license", "License Fee"},
	{"subscription", "Subscription"},
	{"maintenance", "Maintenance Fee"},
	{"implementation", "Services Fee"},
	{"month", "Monthly Fee"},
}

const dateExpr = `([a-z]+\.?\s+[0-9]{1,2},?\s+[0-9]{4}|[0-9]{1,2}[/-][0-9]{1,2}[/-][0-9]{4}|[0-9]{4}-[0-9]{2}-[0-9]{2})`

var datePatterns = []labelled{
	{regexp.MustCompile(`(?i)(?:effective|start|commencement)\s*date[:\s]*(?:of\s+)?` + dateExpr), "Effective Date"},
	{regexp.MustCompile(`(?i)(?:end|expiration|termination|expiry)\s*date[:\s]*(?:of\s+)?` + dateExpr), "End Date"},
	{regexp.MustCompile(`(?i)(?:expire|expires|expiring|terminates?)\s*(?:on\s+)?` + dateExpr), "Expiration"},
	{regexp.MustCompile(`(?i)(?:through|until|ending)\s+` + dateExpr), "Valid Through"},
	{regexp.MustCompile(`(?i)effective\s+(?:as\s+of\s+)?` + dateExpr), "Effective Date"},
	{regexp.MustCompile(`\b([0-9]{4}-[0-9]{2}-[0-9]{2})\b`), "Date"},
}

var dateLayouts = []string{
	"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006", "Jan. 2, 2006",
	"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "2006-01-02",
}

var termPatterns = []struct {
	re     *regexp.Regexp
	months bool
}{
	{regexp.MustCompile(`(?i)(?:initial\s+)?term\s+(?:of\s+)?([0-9]{1,2})\s*(?:year|yr)s?\b`), false},
	{regexp.MustCompile(`(?i)\b([0-9]{1,2})[- ](?:year|yr)\s+(?:initial\s+)?(?:term|agreement|contract|subscription)`), false},
	{regexp.MustCompile(`(?i)(?:initial\s+)?term\s+(?:of\s+)?([0-9]{1,3})\s*months?\b`), true},
	{regexp.MustCompile(`(?i)\b([0-9]{1,3})[- ]months?\s+(?:initial\s+)?(?:term|agreement|contract|subscription)`), true},
}

type keywordSet struct {
	name     string
	keywords []*regexp.Regexp
}

func keywords(name string, words ...string) keywordSet {
	ks := keywordSet{name: name}
	for _, w := range words {
		ks.keywords = append(ks.keywords, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`s?\b`))
	}
	return ks
}

var pricingModels = []keywordSet{
	keywords("subscription", "subscription", "saas", "annual fee", "recurring"),
	keywords("perpetual", "perpetual license", "one-time license", "permanent license"),
	keywords("per_user", "per user", "per seat", "named user", "concurrent user"),
	keywords("tiered", "tiered pricing", "volume discount", "tier 1", "tier 2"),
	keywords("population_based", "population-based", "per capita", "based on population"),
}

var includedItems = []keywordSet{
	keywords("Software License", "software license", "license grant", "right to use"),
	keywords("Maintenance/Support", "maintenance", "support services", "technical support", "help desk"),
	keywords("Implementation", "implementation", "configuration", "setup", "installation"),
	keywords("Training", "training"),
	keywords("Hosting", "hosting", "saas", "data center"),
	keywords("Data Migration", "data migration", "data conversion"),
	keywords("Customization", "customization", "custom development", "modifications"),
	keywords("Integrations", "integration", "api", "interface", "third-party"),
}

// Analyzer extracts evidence from document text. It holds no mutable state
// and is safe for concurrent use.
type Analyzer struct {
	opts Options
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts Options) *Analyzer {
	opts.ApplyDefaults()
	return &Analyzer{opts: opts}
}

// Analyze mines text for evidence about company and product.
func (a *Analyzer) Analyze(text, company, product string) models.ExtractedContent {
	text = utils.CollapseSpace(text)
	if text == "" {
		return models.ExtractedContent{}
	}

	companyHit := company != "" && utils.ContainsFold(text, strings.TrimSpace(company))
	productHit := product != "" && utils.ContainsFold(text, strings.TrimSpace(product))
	both := companyHit && (product == "" || productHit)

	return models.ExtractedContent{
		PricingMentions:         a.pricing(text),
		Dates:                   a.dates(text),
		TermMentions:            terms(text),
		CompanyProductMentioned: both,
		CompanyMentioned:        companyHit,
		ProductMentioned:        productHit,
		PricingModels:           matchSets(text, pricingModels),
		IncludedItems:           matchSets(text, includedItems),
		TextLength:              utf8.RuneCountInString(text),
	}
}

func (a *Analyzer) pricing(text string) []models.PricingMention {
	var mentions []models.PricingMention
	index := make(map[float64]int)
	seen := make(map[int]bool)

	add := func(start, end int, raw, label string) {
		if seen[start] {
			return
		}
		seen[start] = true
		amount, err := parseAmount(raw)
		if err != nil || amount < a.opts.MinAmount {
			return
		}
		ctx := a.context(text, start, end)
		if i, ok := index[amount]; ok {
			mentions[i].Occurrences++
			mentions[i].Contexts = append(mentions[i].Contexts, ctx)
			return
		}
		index[amount] = len(mentions)
		mentions = append(mentions, models.PricingMention{
			Amount:      amount,
			Currency:    "USD",
			Label:       label,
			Context:     ctx,
			Occurrences: 1,
			Contexts:    []string{ctx},
		})
	}

	for _, p := range pricePatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			add(m[2], m[3], text[m[2]:m[3]], p.label)
		}
	}
	for _, m := range genericPrice.FindAllStringSubmatchIndex(text, -1) {
		add(m[2], m[3], text[m[2]:m[3]], labelFromContext(text, m[0]))
	}

	if len(mentions) == 0 {
		return nil
	}
	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].Amount > mentions[j].Amount
	})
	if len(mentions) > a.opts.MaxPricing {
		mentions = mentions[:a.opts.MaxPricing]
	}
	return mentions
}

func parseAmount(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimRight(raw, ","), ",", ""), 64)
}

func labelFromContext(text string, start int) string {
	from := max(0, start-40)
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	before := strings.ToLower(text[from:start])
	for _, cl := range contextLabels {
		if strings.Contains(before, cl.word) {
			return cl.label
		}
	}
	return "Amount"
}

func (a *Analyzer) dates(text string) []models.DateMention {
	var out []models.DateMention
	seen := make(map[string]bool)
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[m[2]:m[3]]
			date, ok := ParseDate(raw)
			if !ok {
				continue
			}
			if seen[date] {
				continue
			}
			seen[date] = true
			out = append(out, models.DateMention{
				Date:    date,
				Label:   p.label,
				Context: a.context(text, m[0], m[1]),
			})
			if len(out) >= a.opts.MaxDates {
				return out
			}
		}
	}
	return out
}

// ParseDate parses a date written in one of the common contract formats and
// returns it as YYYY-MM-DD.
func ParseDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, titleMonth(raw)); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func titleMonth(s string) string {
	if s == "" || !unicode.IsLetter(rune(s[0])) {
		return s
	}
	fields := strings.SplitN(s, " ", 2)
	month := strings.ToUpper(fields[0][:1]) + strings.ToLower(fields[0][1:])
	if len(fields) == 1 {
		return month
	}
	return month + " " + fields[1]
}

func terms(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range termPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				continue
			}
			t := FormatTerm(n, p.months)
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// FormatTerm renders a contract duration, e.g. "3 years" or "36 months".
func FormatTerm(n int, months bool) string {
	unit := "year"
	if months {
		unit = "month"
	}
	if n != 1 {
		unit += "s"
	}
	return strconv.Itoa(n) + " " + unit
}

func matchSets(text string, sets []keywordSet) []string {
	var out []string
	for _, s := range sets {
		for _, re := range s.keywords {
			if re.MatchString(text) {
				out = append(out, s.name)
				break
			}
		}
	}
	return out
}

// context returns the text around [start,end), cut on rune boundaries.
func (a *Analyzer) context(text string, start, end int) string {
	from := max(0, start-a.opts.ContextRadius)
	to := min(len(text), end+a.opts.ContextRadius)
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}
	return strings.TrimSpace(text[from:to])
}
