package geo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AlosedAG/contract-finder/internal/models"
)

func cand(url, title, snippet string) models.CandidateResult {
	return models.CandidateResult{RawResult: models.RawResult{URL: url, Title: title, Snippet: snippet}}
}

func TestDetect_URL(t *testing.T) {
	d := NewDetector(nil)
	tests := []struct {
		name string
		url  string
		want models.LocationMatch
	}{
		{"city gov", "https://www.sandiego.gov/sites/default/files/accela-order-2024.pdf", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "San Diego", StateCode: "CA"}},
		{"city alias gov", "https://cityoftacoma.gov/docs/a.pdf", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "Tacoma", StateCode: "WA"}},
		{"city plus state gov", "https://www.goodyearaz.gov/home/showdocument?id=1", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "Goodyear", StateCode: "AZ"}},
		{"county gov", "https://www.sandiegocounty.gov/content/dam/x.pdf", models.LocationMatch{JurisdictionType: models.JurisdictionCounty, Name: "San Diego", StateCode: "CA"}},
		{"state agency gov", "https://www.dgs.ca.gov/resources/x.pdf", models.LocationMatch{JurisdictionType: models.JurisdictionState, Name: "California", StateCode: "CA"}},
		{"state name gov", "https://comptroller.texas.gov/x.pdf", models.LocationMatch{JurisdictionType: models.JurisdictionState, Name: "Texas", StateCode: "TX"}},
		{"civicweb tenant", "https://anaheim-ca.civicweb.net/document/123", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "Anaheim", StateCode: "CA"}},
		{"unknown civicweb tenant", "https://lodi-ca.civicweb.net/document/1", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "Lodi", StateCode: "CA"}},
		{"civicplus state-first tenant", "https://ca-sandiego.civicplus.com/AgendaCenter/ViewFile/Agenda/1", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "San Diego", StateCode: "CA"}},
		{"granicus tenant", "https://sandiego.granicus.com/MetaViewer.php?clip_id=1", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "San Diego", StateCode: "CA"}},
		{"legistar tenant", "https://oakland.legistar.com/View.ashx?ID=1", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "Oakland", StateCode: "CA"}},
		{"city st us", "https://www.berkeley.ca.us/x.pdf", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "Berkeley", StateCode: "CA"}},
		{"ci prefix us", "https://ci.tacoma.wa.us/x.pdf", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "Tacoma", StateCode: "WA"}},
		{"county us", "https://www.co.washoe.nv.us/purchasing/x.pdf", models.LocationMatch{JurisdictionType: models.JurisdictionCounty, Name: "Washoe", StateCode: "NV"}},
		{"state us", "https://das.state.or.us/x.pdf", models.LocationMatch{JurisdictionType: models.JurisdictionState, Name: "Oregon", StateCode: "OR"}},
		{"path segment", "https://records.example.org/denver/contracts/x.pdf", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "Denver", StateCode: "CO"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(cand(tt.url, "", ""), "Accela", "Civic Platform")
			if got.Source != SourceURL {
				t.Errorf("Source = %q, want url", got.Source)
			}
			got.Source = ""
			if got != tt.want {
				t.Errorf("Detect(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestDetect_Text(t *testing.T) {
	d := NewDetector(nil)
	tests := []struct {
		name    string
		title   string
		snippet string
		want    models.LocationMatch
	}{
		{"city comma code", "Order Form - San Diego, CA", "", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "San Diego", StateCode: "CA", Source: SourceText}},
		{"unknown city falls back to state", "Software agreement", "The City of Lodi, CA approved", models.LocationMatch{JurisdictionType: models.JurisdictionState, Name: "California", StateCode: "CA", Source: SourceState}},
		{"consultant is not a city", "Accela quote prepared by Deloitte Consulting, NY", "", models.LocationMatch{JurisdictionType: models.JurisdictionState, Name: "New York", StateCode: "NY", Source: SourceState}},
		{"unknown county comma code", "Mono County, CA agreement", "", models.LocationMatch{JurisdictionType: models.JurisdictionState, Name: "California", StateCode: "CA", Source: SourceState}},
		{"city comma state name", "Agreement", "Denver, Colorado city council", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "Denver", StateCode: "CO", Source: SourceText}},
		{"county comma code", "Kern County, CA contract", "", models.LocationMatch{JurisdictionType: models.JurisdictionCounty, Name: "Kern", StateCode: "CA", Source: SourceText}},
		{"known county alone", "Board of Supervisors", "Washoe County purchasing", models.LocationMatch{JurisdictionType: models.JurisdictionCounty, Name: "Washoe", StateCode: "NV", Source: SourceText}},
		{"known city alone", "Seattle permitting system renewal", "", models.LocationMatch{JurisdictionType: models.JurisdictionCity, Name: "Seattle", StateCode: "WA", Source: SourceText}},
		{"state name alone", "State of Michigan master agreement", "", models.LocationMatch{JurisdictionType: models.JurisdictionState, Name: "Michigan", StateCode: "MI", Source: SourceState}},
		{"state code alone", "Statewide contract NV", "", models.LocationMatch{JurisdictionType: models.JurisdictionState, Name: "Nevada", StateCode: "NV", Source: SourceState}},
		{"ambiguous code ignored", "ORDER FORM OR AGREEMENT", "", models.UnknownLocation()},
		{"nothing", "Accela order form", "pricing attached", models.UnknownLocation()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(cand("https://files.example.org/doc.pdf", tt.title, tt.snippet), "Accela", "Civic Platform")
			if got != tt.want {
				t.Errorf("Detect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDetect_VendorNameIsNotAPlace(t *testing.T) {
	g := NewGazetteer(append(defaultCities, Place{Name: "Tyler", State: "TX"}), defaultCounties)
	d := NewDetector(g)

	got := d.Detect(cand("https://files.example.org/x.pdf", "Tyler Technologies EnerGov renewal", "Tyler support"), "Tyler Technologies", "EnerGov")
	if got.Known() {
		t.Errorf("vendor name matched as place: %+v", got)
	}
	got = d.Detect(cand("https://tyler.legistar.com/x", "", ""), "Tyler Technologies", "EnerGov")
	if got.Known() {
		t.Errorf("vendor tenant matched as place: %+v", got)
	}
	got = d.Detect(cand("https://files.example.org/x.pdf", "Tyler, TX EnerGov agreement", ""), "Accela", "")
	if got.Name != "Tyler" || got.StateCode != "TX" {
		t.Errorf("real place not matched without vendor guard: %+v", got)
	}
}

func TestDetect_URLBeatsText(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(cand("https://www.sandiego.gov/a.pdf", "Tacoma, WA agreement", ""), "Accela", "")
	if got.Name != "San Diego" {
		t.Errorf("URL match should win, got %+v", got)
	}
}

func TestLoadGazetteer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.yaml")
	data := []byte("cities:\n  - name: Lodi\n    state: ca\n    aliases: [lodica]\ncounties:\n  - name: Ada\n    state: ID\n")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	g, err := LoadGazetteer(path)
	if err != nil {
		t.Fatalf("LoadGazetteer: %v", err)
	}
	if p, ok := g.CityBySlug("lodica"); !ok || p.State != "CA" {
		t.Errorf("alias not loaded: %+v %v", p, ok)
	}
	if _, ok := g.CountyBySlug("adacounty"); !ok {
		t.Error("county not loaded")
	}
	if _, ok := g.CityBySlug("sandiego"); !ok {
		t.Error("built-in entries should be kept")
	}
	if _, err := LoadGazetteer(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGazetteer_States(t *testing.T) {
	g := DefaultGazetteer()
	if name, ok := g.StateName("wa"); !ok || name != "Washington" {
		t.Errorf("StateName(wa) = %q, %v", name, ok)
	}
	if code, ok := g.StateCode("North Carolina"); !ok || code != "NC" {
		t.Errorf("StateCode = %q, %v", code, ok)
	}
}

func TestGuard_ScrubsLongestTermFirst(t *testing.T) {
	g := newGuard("Tyler Technologies", "EnerGov")
	if len(g.terms) != 4 {
		t.Fatalf("terms = %d, want full name, product and two words", len(g.terms))
	}
	got := g.scrub("Tyler Technologies EnerGov renewal for Tyler, TX")
	if strings.Contains(strings.ToLower(got), "tyler") || strings.Contains(got, "EnerGov") {
		t.Errorf("scrub left a vendor term: %q", got)
	}
	if !strings.Contains(got, "renewal for") {
		t.Errorf("scrub removed ordinary words: %q", got)
	}
}
