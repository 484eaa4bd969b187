package ranking

import (
	"testing"

	"github.com/AlosedAG/contract-finder/internal/blocklist"
	"github.com/AlosedAG/contract-finder/internal/models"
)

func candidate(title, rawURL, domain string) models.CandidateResult {
	return models.CandidateResult{
		RawResult:     models.RawResult{Title: title, URL: rawURL},
		NormalizedURL: rawURL,
		Domain:        domain,
	}
}

func TestScorer_AccelaOrderForm(t *testing.T) {
	s := NewScorer(nil, blocklist.Default())
	c := candidate(
		"Accela Civic Platform Renewal Order Form",
		"https://sandiego.gov/purchasing/contracts/accela-order-2024.pdf",
		"sandiego.gov",
	)

	got := s.Score(c, "Accela", "Civic Platform")

	want := map[string]float64{
		SignalDomainTrust:  2.0,
		SignalDocumentType: 2.0,
		SignalTitlePattern: 1.5,
		SignalCompanyMatch: 1.0,
		SignalProductMatch: 1.0,
		SignalCoOccurrence: 0.5,
		SignalFileType:     1.0,
		SignalRecency:      0.5,
	}
	for name, v := range want {
		if got.ScoreBreakdown[name] != v {
			t.Errorf("breakdown[%s] = %v, want %v", name, got.ScoreBreakdown[name], v)
		}
	}
	if len(got.ScoreBreakdown) != len(want) {
		t.Errorf("breakdown = %v, want only %d entries", got.ScoreBreakdown, len(want))
	}
	if got.RelevanceScore != 9.5 {
		t.Errorf("RelevanceScore = %v, want 9.5", got.RelevanceScore)
	}
	if got.HintedType != models.ClassOrderForm {
		t.Errorf("HintedType = %q, want order_form", got.HintedType)
	}
}

func TestScorer_Bounds(t *testing.T) {
	s := NewScorer(nil, blocklist.Default())
	tests := []struct {
		name string
		c    models.CandidateResult
	}{
		{"user guide", candidate("Accela Citizen Access User Guide - Table of Contents", "https://accela-solutions.net/help/user-guide.html", "accela-solutions.net")},
		{"login", candidate("Welcome", "https://portal.example.com/login.aspx", "portal.example.com")},
		{"empty", candidate("", "", "")},
		{"everything", candidate("Accela Civic Platform Order Form Fee Schedule Agreement 2024 [PDF]", "https://co.orange.ca.us/documents/accela-civic-platform-order-form-2024.pdf", "co.orange.ca.us")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.c, "Accela", "Civic Platform")
			if got.RelevanceScore < 0 || got.RelevanceScore > MaxScore {
				t.Errorf("RelevanceScore = %v, out of [0,%v]", got.RelevanceScore, MaxScore)
			}
		})
	}
}

func TestScorer_Deterministic(t *testing.T) {
	s := NewScorer(nil, blocklist.Default())
	c := candidate("City Contract with Tyler Technologies", "https://austintexas.gov/edims/document.cfm?id=1", "austintexas.gov")

	first := s.Score(c, "Tyler Technologies", "Munis")
	for i := 0; i < 20; i++ {
		again := s.Score(c, "Tyler Technologies", "Munis")
		if again.RelevanceScore != first.RelevanceScore {
			t.Fatalf("run %d: score %v != %v", i, again.RelevanceScore, first.RelevanceScore)
		}
	}
}

func TestScorer_Penalties(t *testing.T) {
	s := NewScorer(nil, blocklist.Default())
	tests := []struct {
		name   string
		c      models.CandidateResult
		signal string
	}{
		{"company-owned host", candidate("Accela Pricing", "https://accela-solutions.net/pricing", "accela-solutions.net"), SignalNearBlocked},
		{"marketplace host", candidate("Permitting software", "https://govmarketplace.io/permits", "govmarketplace.io"), SignalNearBlocked},
		{"marketing copy", candidate("Accela vs Tyler: request a demo", "https://blog.example.com/accela", "blog.example.com"), SignalMarketingTerms},
		{"user guide", candidate("Civic Platform Administrator Guide", "https://docs.example.com/admin", "docs.example.com"), SignalUserManual},
		{"login page", candidate("Portal", "https://aca.example.com/Default.aspx", "aca.example.com"), SignalLoginPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.c, "Accela", "Civic Platform")
			if v, ok := got.ScoreBreakdown[tt.signal]; !ok || v >= 0 {
				t.Errorf("breakdown[%s] = %v (present %v), want negative", tt.signal, v, ok)
			}
		})
	}
}

func TestScorer_DisabledSignals(t *testing.T) {
	config := DefaultRankingConfig()
	config.DisabledSignals = []string{SignalFileType, SignalRecency}
	s := NewScorer(config, blocklist.Default())
	c := candidate("Order Form", "https://sandiego.gov/order-2024.pdf", "sandiego.gov")

	got := s.Score(c, "Accela", "")
	if _, ok := got.ScoreBreakdown[SignalFileType]; ok {
		t.Error("disabled file_type still contributed")
	}
	if _, ok := got.ScoreBreakdown[SignalRecency]; ok {
		t.Error("disabled recency still contributed")
	}
}

func TestScorer_CoOccurrenceNeedsBoth(t *testing.T) {
	s := NewScorer(nil, nil)
	c := candidate("Accela agreement", "https://example.org/a", "example.org")
	got := s.Score(c, "Accela", "Civic Platform")
	if _, ok := got.ScoreBreakdown[SignalCoOccurrence]; ok {
		t.Error("co_occurrence without product match")
	}
	if got.ScoreBreakdown[SignalCompanyMatch] == 0 {
		t.Error("expected company match")
	}
}

func TestScoreAll_OrderAndBlocked(t *testing.T) {
	s := NewScorer(nil, blocklist.Default())
	low := candidate("notes", "https://example.org/a", "example.org")
	low.Order = 0
	high := candidate("Accela Order Form", "https://sandiego.gov/a.pdf", "sandiego.gov")
	high.Order = 1
	tieA := candidate("notes", "https://example.org/b", "example.org")
	tieA.Order = 2
	blocked := candidate("Accela Order Form", "https://www.accela.com/order-form.pdf", "accela.com")
	blocked.IsBlocked = true
	blocked.Order = 3

	got := s.ScoreAll([]models.CandidateResult{low, high, tieA, blocked}, "Accela", "")
	if len(got) != 3 {
		t.Fatalf("ScoreAll returned %d results, want 3", len(got))
	}
	if got[0].URL != high.URL {
		t.Errorf("first = %s, want %s", got[0].URL, high.URL)
	}
	if got[1].Order != 0 || got[2].Order != 2 {
		t.Errorf("ties not in first-seen order: %d, %d", got[1].Order, got[2].Order)
	}
	for _, r := range got {
		if r.IsBlocked {
			t.Errorf("blocked result %s was scored", r.URL)
		}
	}
}

func TestLatestYear(t *testing.T) {
	tests := []struct {
		text    string
		ceiling int
		want    int
	}{
		{"contract 2019 renewed 2023", 2025, 2023},
		{"fy2031 budget", 2025, 0},
		{"id 120245", 2025, 0},
		{"1985 archive", 2025, 0},
		{"no year", 2025, 0},
		{"2024-2025 agreement", 2025, 2025},
	}
	for _, tt := range tests {
		if got := LatestYear(tt.text, tt.ceiling); got != tt.want {
			t.Errorf("LatestYear(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestLooksLikeTOC(t *testing.T) {
	if !LooksLikeTOC("Introduction ........ 3 Setup ....... 7") {
		t.Error("dotted leaders should look like a table of contents")
	}
	if !LooksLikeTOC("TABLE OF CONTENTS") {
		t.Error("literal heading should look like a table of contents")
	}
	if LooksLikeTOC("The City agrees to pay $125,000 per year.") {
		t.Error("contract text should not look like a table of contents")
	}
}

func TestRankingConfig_ApplyDefaults(t *testing.T) {
	c := &RankingConfig{GovDomainScore: 3}
	c.ApplyDefaults()
	if c.GovDomainScore != 3 {
		t.Errorf("GovDomainScore overwritten: %v", c.GovDomainScore)
	}
	if c.ReferenceYear != 2024 || c.PDFScore != 1.0 || len(c.TitlePatterns) == 0 {
		t.Errorf("defaults not applied: %+v", c)
	}
	if !(&RankingConfig{DisabledSignals: []string{"recency"}}).Disabled("recency") {
		t.Error("Disabled(recency) = false")
	}
}
