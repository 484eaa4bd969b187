package geo

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// Source values recorded on a LocationMatch.
const (
	SourceURL   = "url"
	SourceText  = "text"
	SourceState = "state"
)

var hostedPlatforms = []string{".civicweb.net", ".civicplus.com", ".legistar.com", ".municode.com", ".granicus.com", ".primegov.com"}

var stateAgencies = map[string]bool{
	"state": true, "das": true, "dgs": true, "doa": true, "dot": true,
	"oit": true, "dir": true, "purchasing": true, "procurement": true, "gsa": true,
}

var cityPrefixes = []string{"cityof", "townof", "villageof", "ci", "city"}

// ambiguousCodes are state codes that are also common words or abbreviations,
// ignored when a code appears alone in text.
var ambiguousCodes = map[string]bool{
	"IN": true, "OR": true, "ME": true, "OK": true, "HI": true,
	"ID": true, "DE": true, "OH": true, "AS": true, "PA": true, "CO": true,
}

var (
	hostedTenantRe = regexp.MustCompile(`^([a-z]+)-([a-z]{2})$`)
	stateCodeRe    = regexp.MustCompile(`\b([A-Z]{2})\b`)

	// CivicPlus names tenants state first: ks-lawrence.
	stateFirstTenantRe = regexp.MustCompile(`^([a-z]{2})-([a-z]+)$`)
)

// Detector finds the jurisdiction of a result. It only reads its gazetteer,
// so one Detector can be shared by concurrent callers.
type Detector struct {
	g            *Gazetteer
	placeStateRe *regexp.Regexp
	countyRe     *regexp.Regexp
	stateNameRe  *regexp.Regexp
	cityNameRe   *regexp.Regexp
}

// NewDetector returns a Detector over g, or the built-in gazetteer when g is nil.
func NewDetector(g *Gazetteer) *Detector {
	if g == nil {
		g = DefaultGazetteer()
	}
	names := make([]string, 0, len(g.stateByName))
	for n := range g.stateByName {
		names = append(names, regexp.QuoteMeta(n))
	}
	sortLongestFirst(names)
	stateAlt := strings.Join(names, "|")

	cityAlt := make([]string, len(g.cityNames))
	for i, n := range g.cityNames {
		cityAlt[i] = regexp.QuoteMeta(n)
	}
	d := &Detector{
		g: g,
		// "Name, ST" or "Name, State". Name is up to four capitalized words.
		placeStateRe: regexp.MustCompile(`((?:[A-Z][A-Za-z.'-]*\s+){0,3}[A-Z][A-Za-z.'-]*),\s*([A-Z]{2}\b|(?i:` + stateAlt + `)\b)`),
		countyRe:     regexp.MustCompile(`\b([A-Z][A-Za-z.'-]*(?:[ -][A-Z][A-Za-z.'-]*)?)\s+County\b|\bCounty\s+of\s+([A-Z][A-Za-z.'-]*(?:[ -][A-Z][A-Za-z.'-]*)?)`),
		stateNameRe:  regexp.MustCompile(`(?i)\b(` + stateAlt + `)\b`),
	}
	if len(cityAlt) > 0 {
		d.cityNameRe = regexp.MustCompile(`(?i)\b(` + strings.Join(cityAlt, "|") + `)\b`)
	}
	return d
}

// Detect tries, in order: the URL host and path against the gazetteer, an
// explicit "City, ST" or "X County" in the title or snippet, then a state
// name or code alone. Company and product terms are never read as places.
func (d *Detector) Detect(c models.CandidateResult, company, product string) models.LocationMatch {
	guard := newGuard(company, product)

	rawURL := c.URL
	if rawURL == "" {
		rawURL = c.NormalizedURL
	}
	if m, ok := d.fromURL(rawURL, guard); ok {
		m.Source = SourceURL
		return m
	}

	text := guard.scrub(c.Title + " | " + c.Snippet)
	if m, ok := d.fromText(text); ok {
		m.Source = SourceText
		return m
	}
	if m, ok := d.stateFromText(text); ok {
		m.Source = SourceState
		return m
	}
	return models.UnknownLocation()
}

func (d *Detector) fromURL(raw string, guard *guard) (models.LocationMatch, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return models.LocationMatch{}, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return models.LocationMatch{}, false
	}
	if m, ok := d.fromHost(host, guard); ok {
		return m, true
	}
	for _, seg := range strings.Split(strings.ToLower(u.Path), "/") {
		s := slug(seg)
		if len(s) < 4 || guard.blocks(s) {
			continue
		}
		if p, ok := d.g.CountyBySlug(s); ok {
			return county(p.Name, p.State), true
		}
		if p, ok := d.g.CityBySlug(s); ok {
			return city(p.Name, p.State), true
		}
	}
	return models.LocationMatch{}, false
}

func (d *Detector) fromHost(host string, guard *guard) (models.LocationMatch, bool) {
	labels := strings.Split(host, ".")
	n := len(labels)

	for _, platform := range hostedPlatforms {
		if !strings.HasSuffix(host, platform) || n < 3 {
			continue
		}
		tenant := labels[0]
		if guard.blocks(slug(tenant)) {
			return models.LocationMatch{}, false
		}
		if m := hostedTenantRe.FindStringSubmatch(tenant); m != nil {
			if code := strings.ToUpper(m[2]); d.validCode(code) {
				return d.cityOrTitle(m[1], code), true
			}
		}
		if m := stateFirstTenantRe.FindStringSubmatch(tenant); m != nil {
			if code := strings.ToUpper(m[1]); d.validCode(code) {
				return d.cityOrTitle(m[2], code), true
			}
		}
		if p, ok := d.g.CountyBySlug(tenant); ok {
			return county(p.Name, p.State), true
		}
		if p, ok := d.g.CityBySlug(slug(tenant)); ok {
			return city(p.Name, p.State), true
		}
		return models.LocationMatch{}, false
	}

	if labels[n-1] == "us" && n >= 3 {
		code := strings.ToUpper(labels[n-2])
		if !d.validCode(code) {
			return models.LocationMatch{}, false
		}
		rest := labels[:n-2]
		for i := 0; i+1 < len(rest); i++ {
			if rest[i] == "co" && !guard.blocks(rest[i+1]) {
				return d.countyOrTitle(rest[i+1], code), true
			}
		}
		for i := 0; i+1 < len(rest); i++ {
			if rest[i] == "ci" && !guard.blocks(rest[i+1]) {
				return d.cityOrTitle(rest[i+1], code), true
			}
		}
		last := rest[len(rest)-1]
		if stateAgencies[last] || (len(rest) > 1 && rest[len(rest)-1] == "state") {
			return d.state(code), true
		}
		if guard.blocks(last) || len(last) < 3 || last == "k12" {
			return models.LocationMatch{}, false
		}
		return d.cityOrTitle(last, code), true
	}

	if labels[n-1] == "gov" && n >= 2 {
		name := labels[n-2]
		if len(name) == 2 && d.validCode(strings.ToUpper(name)) {
			return d.state(strings.ToUpper(name)), true
		}
		s := slug(name)
		if guard.blocks(s) {
			return models.LocationMatch{}, false
		}
		if code, ok := d.g.StateCode(strings.ReplaceAll(name, "-", " ")); ok {
			return d.state(code), true
		}
		if p, ok := d.g.CountyBySlug(s); ok {
			return county(p.Name, p.State), true
		}
		for _, cand := range citySlugCandidates(s) {
			if p, ok := d.g.CityBySlug(cand); ok {
				return city(p.Name, p.State), true
			}
			if len(cand) > 4 {
				code := strings.ToUpper(cand[len(cand)-2:])
				if p, ok := d.g.CityBySlug(cand[:len(cand)-2]); ok && p.State == code {
					return city(p.Name, p.State), true
				}
			}
		}
	}
	return models.LocationMatch{}, false
}

func citySlugCandidates(s string) []string {
	out := []string{s}
	for _, prefix := range cityPrefixes {
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix)+2 {
			out = append(out, strings.TrimPrefix(s, prefix))
		}
	}
	return out
}

func (d *Detector) fromText(text string) (models.LocationMatch, bool) {
	if m, ok := d.placeWithState(text); ok {
		return m, true
	}
	if m, ok := d.countyAlone(text); ok {
		return m, true
	}
	if d.cityNameRe != nil {
		if m := d.cityNameRe.FindStringSubmatch(text); m != nil {
			if p, ok := d.g.cityByName[strings.ToLower(m[1])]; ok {
				return city(p.Name, p.State), true
			}
		}
	}
	return models.LocationMatch{}, false
}

// placeWithState reads "San Diego, CA", "City of Tacoma, Washington" and
// "Kern County, CA". Only gazetteer places match; any other capitalized
// phrase before a state is usually a vendor or consultant.
func (d *Detector) placeWithState(text string) (models.LocationMatch, bool) {
	for _, m := range d.placeStateRe.FindAllStringSubmatch(text, -1) {
		code := strings.ToUpper(m[2])
		if len(code) != 2 {
			c, ok := d.g.StateCode(m[2])
			if !ok {
				continue
			}
			code = c
		}
		if !d.validCode(code) {
			continue
		}
		name := strings.TrimSpace(m[1])
		switch {
		case strings.HasSuffix(name, " County"):
			name = strings.TrimSuffix(name, " County")
			for _, cand := range []string{lastWords(name, 2), lastWords(name, 1)} {
				if p, ok := d.knownCounty(cand, code); ok {
					return county(p.Name, p.State), true
				}
			}
			continue
		case strings.HasPrefix(name, "County of "):
			if p, ok := d.knownCounty(strings.TrimPrefix(name, "County of "), code); ok {
				return county(p.Name, p.State), true
			}
			continue
		}
		if i := strings.LastIndex(name, "City of "); i >= 0 {
			name = name[i+len("City of "):]
		}
		if p, ok := d.knownCityIn(name, code); ok {
			return city(p.Name, p.State), true
		}
	}
	return models.LocationMatch{}, false
}

func (d *Detector) countyAlone(text string) (models.LocationMatch, bool) {
	for _, m := range d.countyRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		for _, cand := range []string{name, lastWords(name, 1)} {
			if p, ok := d.g.countyByKey[strings.ToLower(cand)]; ok {
				return county(p.Name, p.State), true
			}
		}
	}
	return models.LocationMatch{}, false
}

// knownCityIn finds a gazetteer city in the same state whose name ends name.
func (d *Detector) knownCityIn(name, code string) (Place, bool) {
	lower := strings.ToLower(name)
	for _, n := range d.g.cityNames {
		p := d.g.cityByName[n]
		if p.State == code && (lower == n || strings.HasSuffix(lower, " "+n)) {
			return p, true
		}
	}
	return Place{}, false
}

func (d *Detector) stateFromText(text string) (models.LocationMatch, bool) {
	if m := d.stateNameRe.FindStringSubmatch(text); m != nil {
		if code, ok := d.g.StateCode(m[1]); ok {
			return d.state(code), true
		}
	}
	for _, m := range stateCodeRe.FindAllStringSubmatch(text, -1) {
		if ambiguousCodes[m[1]] {
			continue
		}
		if d.validCode(m[1]) {
			return d.state(m[1]), true
		}
	}
	return models.LocationMatch{}, false
}

func (d *Detector) validCode(code string) bool {
	_, ok := d.g.stateByCode[code]
	return ok
}

func (d *Detector) state(code string) models.LocationMatch {
	return models.LocationMatch{JurisdictionType: models.JurisdictionState, Name: d.g.stateByCode[code], StateCode: code}
}

func (d *Detector) cityOrTitle(s, code string) models.LocationMatch {
	if p, ok := d.g.CityBySlug(slug(s)); ok && p.State == code {
		return city(p.Name, p.State)
	}
	return city(titleCase(s), code)
}

// countyOrTitle is for structured hosts such as co.<name>.<st>.us, where the
// label is a county even when the gazetteer does not list it.
func (d *Detector) countyOrTitle(s, code string) models.LocationMatch {
	if p, ok := d.knownCounty(s, code); ok {
		return county(p.Name, p.State)
	}
	return county(titleCase(s), code)
}

func (d *Detector) knownCounty(s, code string) (Place, bool) {
	if p, ok := d.g.countyByKey[strings.ToLower(s)]; ok && p.State == code {
		return p, true
	}
	for _, p := range d.g.counties {
		if p.State == code && slug(p.Name) == slug(s) {
			return p, true
		}
	}
	return Place{}, false
}

func city(name, code string) models.LocationMatch {
	return models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: name, StateCode: code}
}

func county(name, code string) models.LocationMatch {
	return models.LocationMatch{JurisdictionType: models.JurisdictionCounty, Name: name, StateCode: code}
}

func lastWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}

func titleCase(s string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// guard keeps vendor and product names, and their distinctive words, from
// being read as places.
type guard struct {
	terms     []*regexp.Regexp
	fullSlugs []string
	wordSlugs map[string]bool
}

func newGuard(company, product string) *guard {
	g := &guard{wordSlugs: make(map[string]bool)}
	var terms []string
	for _, t := range []string{company, product} {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		terms = append(terms, t)
		if s := slug(t); len(s) >= 3 {
			g.fullSlugs = append(g.fullSlugs, s)
		}
		for _, w := range strings.Fields(t) {
			if ws := slug(w); len(ws) >= 4 {
				terms = append(terms, w)
				g.wordSlugs[ws] = true
			}
		}
	}
	// Longest first so a full name is scrubbed before its words.
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		if seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		g.terms = append(g.terms, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(t)+`\b`))
	}
	return g
}

func (g *guard) blocks(s string) bool {
	if g.wordSlugs[s] {
		return true
	}
	for _, fs := range g.fullSlugs {
		if strings.Contains(s, fs) {
			return true
		}
	}
	return false
}

func (g *guard) scrub(text string) string {
	for _, re := range g.terms {
		text = re.ReplaceAllString(text, " | ")
	}
	return text
}
