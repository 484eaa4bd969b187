// Package geo detects which city, county or state a procurement document
// belongs to, using a fixed gazetteer of US places.
package geo

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Place is a gazetteer entry. Aliases are extra slugs seen in hostnames,
// e.g. "moval" for Moreno Valley.
type Place struct {
	Name    string   `yaml:"name"`
	State   string   `yaml:"state"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// GazetteerFile is the on-disk format used to extend the built-in gazetteer.
type GazetteerFile struct {
	Cities   []Place `yaml:"cities"`
	Counties []Place `yaml:"counties"`
}

var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
}

var defaultCities = []Place{
	{Name: "Anaheim", State: "CA"},
	{Name: "Berkeley", State: "CA"},
	{Name: "San Diego", State: "CA"},
	{Name: "San Francisco", State: "CA", Aliases: []string{"sfgov"}},
	{Name: "San Jose", State: "CA"},
	{Name: "Los Angeles", State: "CA", Aliases: []string{"lacity"}},
	{Name: "Oakland", State: "CA"},
	{Name: "Sacramento", State: "CA"},
	{Name: "Fresno", State: "CA"},
	{Name: "Moreno Valley", State: "CA", Aliases: []string{"moval"}},
	{Name: "Merced", State: "CA"},
	{Name: "Long Beach", State: "CA", Aliases: []string{"longbeach"}},
	{Name: "Riverside", State: "CA"},
	{Name: "Galveston", State: "TX"},
	{Name: "Houston", State: "TX", Aliases: []string{"houstontx"}},
	{Name: "Dallas", State: "TX", Aliases: []string{"dallascityhall"}},
	{Name: "Austin", State: "TX", Aliases: []string{"austintexas"}},
	{Name: "San Antonio", State: "TX", Aliases: []string{"sanantonio"}},
	{Name: "Fort Worth", State: "TX", Aliases: []string{"fortworthtexas"}},
	{Name: "Tacoma", State: "WA", Aliases: []string{"cityoftacoma"}},
	{Name: "Seattle", State: "WA"},
	{Name: "Spokane", State: "WA", Aliases: []string{"spokanecity"}},
	{Name: "Bellevue", State: "WA", Aliases: []string{"bellevuewa"}},
	{Name: "Hillsboro", State: "OR", Aliases: []string{"hillsboro-oregon"}},
	{Name: "Portland", State: "OR", Aliases: []string{"portlandoregon"}},
	{Name: "Salem", State: "OR", Aliases: []string{"cityofsalem"}},
	{Name: "Eugene", State: "OR", Aliases: []string{"eugene-or"}},
	{Name: "Denver", State: "CO", Aliases: []string{"denvergov"}},
	{Name: "Boulder", State: "CO", Aliases: []string{"bouldercolorado"}},
	{Name: "Phoenix", State: "AZ"},
	{Name: "Goodyear", State: "AZ"},
	{Name: "Tucson", State: "AZ", Aliases: []string{"tucsonaz"}},
	{Name: "Charlotte", State: "NC", Aliases: []string{"charlottenc"}},
	{Name: "Raleigh", State: "NC", Aliases: []string{"raleighnc"}},
	{Name: "Tampa", State: "FL", Aliases: []string{"tampagov"}},
	{Name: "Miami", State: "FL", Aliases: []string{"miamigov"}},
	{Name: "Mulberry", State: "FL"},
	{Name: "Orlando", State: "FL", Aliases: []string{"cityoforlando"}},
	{Name: "Papillion", State: "NE"},
	{Name: "Omaha", State: "NE", Aliases: []string{"cityofomaha"}},
	{Name: "Andover", State: "KS", Aliases: []string{"andoverks"}},
	{Name: "Evanston", State: "IL", Aliases: []string{"cityofevanston"}},
	{Name: "Chicago", State: "IL", Aliases: []string{"cityofchicago"}},
	{Name: "Las Vegas", State: "NV", Aliases: []string{"lasvegasnevada"}},
	{Name: "Reno", State: "NV"},
	{Name: "Salt Lake City", State: "UT", Aliases: []string{"slc", "slcgov"}},
	{Name: "Boise", State: "ID", Aliases: []string{"cityofboise"}},
	{Name: "Atlanta", State: "GA", Aliases: []string{"atlantaga"}},
	{Name: "Nashville", State: "TN"},
	{Name: "Baltimore", State: "MD", Aliases: []string{"baltimorecity"}},
	{Name: "Boston", State: "MA"},
	{Name: "Detroit", State: "MI", Aliases: []string{"detroitmi"}},
	{Name: "Minneapolis", State: "MN", Aliases: []string{"minneapolismn"}},
	{Name: "Columbus", State: "OH"},
	{Name: "Philadelphia", State: "PA", Aliases: []string{"phila"}},
	{Name: "Pittsburgh", State: "PA", Aliases: []string{"pittsburghpa"}},
	{Name: "Kansas City", State: "MO", Aliases: []string{"kcmo"}},
	{Name: "Virginia Beach", State: "VA", Aliases: []string{"vbgov"}},
	{Name: "Albuquerque", State: "NM", Aliases: []string{"cabq"}},
	{Name: "Oklahoma City", State: "OK", Aliases: []string{"okc"}},
	{Name: "Milwaukee", State: "WI"},
	{Name: "Honolulu", State: "HI"},
	{Name: "Anchorage", State: "AK"},
}

var defaultCounties = []Place{
	{Name: "Washoe", State: "NV", Aliases: []string{"washoecounty"}},
	{Name: "Kern", State: "CA", Aliases: []string{"kerncounty"}},
	{Name: "Brevard", State: "FL", Aliases: []string{"brevardfl"}},
	{Name: "San Diego", State: "CA", Aliases: []string{"sandiegocounty", "sdcounty"}},
	{Name: "Los Angeles", State: "CA", Aliases: []string{"lacounty"}},
	{Name: "Orange", State: "CA", Aliases: []string{"ocgov"}},
	{Name: "Riverside", State: "CA", Aliases: []string{"rivco"}},
	{Name: "Sacramento", State: "CA", Aliases: []string{"saccounty"}},
	{Name: "Santa Clara", State: "CA", Aliases: []string{"sccgov"}},
	{Name: "King", State: "WA", Aliases: []string{"kingcounty"}},
	{Name: "Pierce", State: "WA", Aliases: []string{"piercecountywa"}},
	{Name: "Maricopa", State: "AZ"},
	{Name: "Pima", State: "AZ"},
	{Name: "Harris", State: "TX", Aliases: []string{"harriscountytx"}},
	{Name: "Travis", State: "TX", Aliases: []string{"traviscountytx"}},
	{Name: "Cook", State: "IL", Aliases: []string{"cookcountyil"}},
	{Name: "Miami-Dade", State: "FL", Aliases: []string{"miamidade"}},
	{Name: "Hillsborough", State: "FL", Aliases: []string{"hillsboroughcounty"}},
	{Name: "Clark", State: "NV", Aliases: []string{"clarkcountynv"}},
	{Name: "Fairfax", State: "VA", Aliases: []string{"fairfaxcounty"}},
	{Name: "Montgomery", State: "MD", Aliases: []string{"montgomerycountymd"}},
	{Name: "Multnomah", State: "OR", Aliases: []string{"multco"}},
	{Name: "Washington", State: "OR", Aliases: []string{"washingtoncountyor"}},
	{Name: "Douglas", State: "NE", Aliases: []string{"douglascounty-ne"}},
	{Name: "Sarpy", State: "NE"},
	{Name: "Salt Lake", State: "UT", Aliases: []string{"slco"}},
	{Name: "Wake", State: "NC", Aliases: []string{"wakegov"}},
	{Name: "Mecklenburg", State: "NC", Aliases: []string{"mecknc"}},
}

// Gazetteer is an immutable set of known places, safe for concurrent use.
type Gazetteer struct {
	stateByCode map[string]string
	stateByName map[string]string
	cities      []Place
	counties    []Place
	citySlugs   map[string]Place
	countySlugs map[string]Place
	// cityNames and countyNames hold lowercase names, longest first.
	cityNames   []string
	cityByName  map[string]Place
	countyNames []string
	countyByKey map[string]Place
}

// NewGazetteer builds a gazetteer over the built-in states plus the given places.
func NewGazetteer(cities, counties []Place) *Gazetteer {
	g := &Gazetteer{
		stateByCode: make(map[string]string, len(stateNames)),
		stateByName: make(map[string]string, len(stateNames)),
		citySlugs:   make(map[string]Place),
		countySlugs: make(map[string]Place),
		cityByName:  make(map[string]Place),
		countyByKey: make(map[string]Place),
	}
	for code, name := range stateNames {
		g.stateByCode[code] = name
		g.stateByName[strings.ToLower(name)] = code
	}
	for _, p := range cities {
		p = cleanPlace(p)
		if p.Name == "" || g.stateByCode[p.State] == "" {
			continue
		}
		g.cities = append(g.cities, p)
		key := strings.ToLower(p.Name)
		if _, dup := g.cityByName[key]; !dup {
			g.cityByName[key] = p
			g.cityNames = append(g.cityNames, key)
		}
		for _, s := range slugsFor(p) {
			if _, dup := g.citySlugs[s]; !dup {
				g.citySlugs[s] = p
			}
		}
	}
	for _, p := range counties {
		p = cleanPlace(p)
		if p.Name == "" || g.stateByCode[p.State] == "" {
			continue
		}
		g.counties = append(g.counties, p)
		key := strings.ToLower(p.Name)
		if _, dup := g.countyByKey[key]; !dup {
			g.countyByKey[key] = p
			g.countyNames = append(g.countyNames, key)
		}
		for _, s := range countySlugsFor(p) {
			if _, dup := g.countySlugs[s]; !dup {
				g.countySlugs[s] = p
			}
		}
	}
	sortLongestFirst(g.cityNames)
	sortLongestFirst(g.countyNames)
	return g
}

// DefaultGazetteer returns the built-in gazetteer.
func DefaultGazetteer() *Gazetteer {
	return NewGazetteer(defaultCities, defaultCounties)
}

// LoadGazetteer reads a YAML file of extra places and merges it with the
// built-in entries. Built-in entries win on conflicts.
func LoadGazetteer(path string) (*Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gazetteer: %w", err)
	}
	var f GazetteerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse gazetteer: %w", err)
	}
	cities := append(append([]Place{}, defaultCities...), f.Cities...)
	counties := append(append([]Place{}, defaultCounties...), f.Counties...)
	return NewGazetteer(cities, counties), nil
}

// StateName returns the full name for a two-letter code.
func (g *Gazetteer) StateName(code string) (string, bool) {
	name, ok := g.stateByCode[strings.ToUpper(code)]
	return name, ok
}

// StateCode returns the code for a full state name.
func (g *Gazetteer) StateCode(name string) (string, bool) {
	code, ok := g.stateByName[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// CityBySlug looks up a city by hostname/path slug.
func (g *Gazetteer) CityBySlug(s string) (Place, bool) {
	p, ok := g.citySlugs[s]
	return p, ok
}

// CountyBySlug looks up a county by hostname/path slug.
func (g *Gazetteer) CountyBySlug(s string) (Place, bool) {
	p, ok := g.countySlugs[s]
	return p, ok
}

// Cities returns a copy of the known cities.
func (g *Gazetteer) Cities() []Place {
	return append([]Place(nil), g.cities...)
}

// Counties returns a copy of the known counties.
func (g *Gazetteer) Counties() []Place {
	return append([]Place(nil), g.counties...)
}

func cleanPlace(p Place) Place {
	p.Name = strings.TrimSpace(p.Name)
	p.State = strings.ToUpper(strings.TrimSpace(p.State))
	return p
}

func slugsFor(p Place) []string {
	out := []string{slug(p.Name)}
	if strings.Contains(p.Name, " ") {
		out = append(out, strings.ReplaceAll(strings.ToLower(p.Name), " ", "-"))
	}
	for _, a := range p.Aliases {
		out = append(out, strings.ToLower(strings.TrimSpace(a)))
	}
	return out
}

// countySlugsFor never includes the bare county name, which is too often an
// ordinary word ("orange", "king", "clark").
func countySlugsFor(p Place) []string {
	base := slug(p.Name)
	out := []string{base + "county", "countyof" + base, base + "co"}
	for _, a := range p.Aliases {
		out = append(out, strings.ToLower(strings.TrimSpace(a)))
	}
	return out
}

// slug lowercases s and drops everything but letters and digits.
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sortLongestFirst(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
}
