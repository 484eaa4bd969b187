// Package blocklist classifies result domains: which ones are excluded from a run
// and which ones belong to a government body.
package blocklist

import (
	"regexp"
	"strings"
)

// Category tags why a domain is excluded.
type Category string

const (
	VendorMarketing      Category = "vendor-marketing"
	ReviewAggregator     Category = "review-aggregator"
	ResellerPartner      Category = "reseller-partner"
	CloudMarketplace     Category = "cloud-marketplace"
	UserManualAggregator Category = "user-manual-aggregator"
	News                 Category = "news"
	BidPortal            Category = "bid-portal"
	DocumentAggregator   Category = "document-aggregator"
	SocialMedia          Category = "social-media"
)

// Entry maps a domain pattern to its category. A domain matches when it equals
// Pattern or is a subdomain of it. Municipal tenants of a hosted platform are
// never matched, so a vendor entry for the platform only covers its own site.
type Entry struct {
	Pattern  string   `yaml:"pattern" json:"pattern"`
	Category Category `yaml:"category" json:"category"`
}

// Trust is how strongly a domain is tied to a government body.
type Trust int

const (
	// TrustNone is an ordinary domain.
	TrustNone Trust = iota
	// TrustHosted is a municipal tenant on an agenda/records platform (legistar, civicweb).
	TrustHosted
	// TrustLocality is a US locality naming pattern (ci.x.st.us, co.x.st.us, state.st.us).
	TrustLocality
	// TrustGov is a .gov or .mil domain.
	TrustGov
)

// String returns the trust level name.
func (t Trust) String() string {
	switch t {
	case TrustHosted:
		return "hosted"
	case TrustLocality:
		return "locality"
	case TrustGov:
		return "gov"
	default:
		return "none"
	}
}

var defaultEntries = []Entry{
	{"accela.com", VendorMarketing},
	{"tyler.com", VendorMarketing},
	{"tylertech.com", VendorMarketing},
	{"civicplus.com", VendorMarketing},
	{"granicus.com", VendorMarketing},
	{"govbusinessreview.com", ReviewAggregator},
	{"govciooutlook.com", ReviewAggregator},
	{"g2.com", ReviewAggregator},
	{"capterra.com", ReviewAggregator},
	{"softwareadvice.com", ReviewAggregator},
	{"softwaresuggest.com", ReviewAggregator},
	{"gartner.com", ReviewAggregator},
	{"trustradius.com", ReviewAggregator},
	{"getapp.com", ReviewAggregator},
	{"peerspot.com", ReviewAggregator},
	{"sourceforge.net", ReviewAggregator},
	{"slashdot.org", ReviewAggregator},
	{"f6s.com", ReviewAggregator},
	{"toolsinfo.com", ReviewAggregator},
	{"saascounter.com", ReviewAggregator},
	{"3sgplus.com", ResellerPartner},
	{"vision33.com", ResellerPartner},
	{"contentarch.com", ResellerPartner},
	{"sewcopy.com", ResellerPartner},
	{"civicdata.com", ResellerPartner},
	{"carahsoft.com", ResellerPartner},
	{"catalogartifact.azureedge.net", CloudMarketplace},
	{"marketplace.microsoft.com", CloudMarketplace},
	{"azuremarketplace.microsoft.com", CloudMarketplace},
	{"aws.amazon.com", CloudMarketplace},
	{"azure.microsoft.com", CloudMarketplace},
	{"usermanual.wiki", UserManualAggregator},
	{"scribd.com", UserManualAggregator},
	{"manualslib.com", UserManualAggregator},
	{"prnewswire.com", News},
	{"businesswire.com", News},
	{"globenewswire.com", News},
	{"prweb.com", News},
	{"prbuzz.com", News},
	{"govtech.com", News},
	{"bidnet.com", BidPortal},
	{"bidnetdirect.com", BidPortal},
	{"bonfirehub.com", BidPortal},
	{"publicpurchase.com", BidPortal},
	{"govwin.com", BidPortal},
	{"bidsync.com", BidPortal},
	{"planetbids.com", BidPortal},
	{"bidexpress.com", BidPortal},
	{"demandstar.com", BidPortal},
	{"negometrix.com", BidPortal},
	{"ionwave.net", BidPortal},
	{"bidsandawards.com", BidPortal},
	{"highergov.com", BidPortal},
	{"bidbanana.thebidlab.com", BidPortal},
	{"pdffiller.com", DocumentAggregator},
	{"documentcloud.org", DocumentAggregator},
	{"linkedin.com", SocialMedia},
	{"twitter.com", SocialMedia},
	{"x.com", SocialMedia},
	{"facebook.com", SocialMedia},
	{"youtube.com", SocialMedia},
	{"wikipedia.org", SocialMedia},
	{"reddit.com", SocialMedia},
}

var defaultHostedPlatforms = []string{
	"legistar.com", "civicweb.net", "civicplus.com", "granicus.com",
	"municode.com", "laserfiche.com", "primegov.com",
}

// vendorSubdomains on a hosted platform are the vendor's own pages, not tenants.
var vendorSubdomains = map[string]bool{
	"blog": true, "docs": true, "go": true, "help": true, "info": true,
	"learn": true, "support": true, "community": true, "status": true,
}

var localityPattern = regexp.MustCompile(`(^|\.)(ci|co|city|cityof|county|state|town|twp|vil|village|k12)\.[a-z0-9-]+(\.[a-z]{2})?\.us$|\.state\.[a-z]{2}\.us$|(^|\.)[a-z]{2}\.us$`)

// Classifier is an immutable domain lookup table, safe for concurrent use.
type Classifier struct {
	entries []Entry
	hosted  []string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithHostedPlatforms replaces the agenda/records platforms whose tenants count as government.
func WithHostedPlatforms(domains ...string) Option {
	return func(c *Classifier) {
		c.hosted = normalizeAll(domains)
	}
}

// New builds a classifier from entries. The slice is copied.
func New(entries []Entry, opts ...Option) *Classifier {
	c := &Classifier{
		entries: make([]Entry, 0, len(entries)),
		hosted:  normalizeAll(defaultHostedPlatforms),
	}
	for _, e := range entries {
		p := normalizeDomain(e.Pattern)
		if p == "" {
			continue
		}
		c.entries = append(c.entries, Entry{Pattern: p, Category: e.Category})
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultEntries returns a copy of the built-in table.
func DefaultEntries() []Entry {
	out := make([]Entry, len(defaultEntries))
	copy(out, defaultEntries)
	return out
}

// Default returns a classifier over the built-in table plus extra entries.
func Default(extra ...Entry) *Classifier {
	return New(append(DefaultEntries(), extra...))
}

// Classify returns the category of the first entry matching domain.
func (c *Classifier) Classify(domain string) (Category, bool) {
	domain = normalizeDomain(domain)
	if domain == "" || c.isTenant(domain) {
		return "", false
	}
	for _, e := range c.entries {
		if matches(domain, e.Pattern) {
			return e.Category, true
		}
	}
	return "", false
}

// IsBlocked reports whether domain is excluded.
func (c *Classifier) IsBlocked(domain string) bool {
	_, ok := c.Classify(domain)
	return ok
}

// Trust grades how strongly domain is tied to a government body.
func (c *Classifier) Trust(domain string) Trust {
	domain = normalizeDomain(domain)
	switch {
	case domain == "":
		return TrustNone
	case strings.HasSuffix(domain, ".gov") || strings.HasSuffix(domain, ".mil") || strings.Contains(domain, ".gov."):
		return TrustGov
	case localityPattern.MatchString(domain):
		return TrustLocality
	}
	if c.isTenant(domain) {
		return TrustHosted
	}
	return TrustNone
}

// isTenant reports whether domain is a municipal subdomain of a hosted platform.
func (c *Classifier) isTenant(domain string) bool {
	for _, h := range c.hosted {
		if domain == h || !strings.HasSuffix(domain, "."+h) {
			continue
		}
		sub := strings.TrimSuffix(domain, "."+h)
		if i := strings.LastIndex(sub, "."); i >= 0 {
			sub = sub[i+1:]
		}
		return !vendorSubdomains[sub]
	}
	return false
}

// IsGovDomain reports whether domain belongs to a government body.
func (c *Classifier) IsGovDomain(domain string) bool {
	return c.Trust(domain) > TrustNone
}

// Entries returns a copy of the table.
func (c *Classifier) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func matches(domain, pattern string) bool {
	return domain == pattern || strings.HasSuffix(domain, "."+pattern)
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

func normalizeAll(ds []string) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		if n := normalizeDomain(d); n != "" {
			out = append(out, n)
		}
	}
	return out
}
