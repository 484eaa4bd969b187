package evidence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AlosedAG/contract-finder/internal/models"
)

func seed(t *testing.T, x *Index) {
	t.Helper()
	docs := []models.EvidenceDocument{
		{
			ID: "url:1", URL: "https://sandiego.gov/accela-order-2024.pdf", Title: "Accela Renewal Order Form",
			Company: "Accela", Product: "Civic Platform", Classification: models.ClassOrderForm,
			Location: "San Diego, CA", Source: models.SourceRun,
			Content: "This renewal order form covers Accela Civic Platform subscription services for three years.",
		},
		{
			ID: "url:2", URL: "https://austintexas.gov/staff-report.pdf", Title: "Staff Report",
			Company: "Tyler Technologies", Classification: models.ClassStaffReportMemo,
			Location: "Austin, TX", Source: models.SourceRun,
			Content: "Council staff report recommending the Munis upgrade with Tyler Technologies.",
		},
		{
			ID: "file:3", Path: "/inbox/fresno-agreement.pdf", Title: "fresno-agreement.pdf",
			Company: "Accela", Classification: models.ClassContractAgreement, Source: models.SourceInbox,
			Content: "Software license agreement between the City of Fresno and Accela, Inc.",
		},
	}
	for _, d := range docs {
		if err := x.Add(context.Background(), d); err != nil {
			t.Fatalf("Add(%s) error = %v", d.ID, err)
		}
	}
}

func TestIndex_Search(t *testing.T) {
	x, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer x.Close()
	seed(t, x)
	ctx := context.Background()

	tests := []struct {
		name  string
		q     Query
		want  []string
		first string
	}{
		{"text", Query{Text: "renewal subscription"}, []string{"url:1"}, "url:1"},
		{"company filter", Query{Company: "accela"}, []string{"url:1", "file:3"}, ""},
		{"classification filter", Query{Text: "accela", Classification: models.ClassContractAgreement}, []string{"file:3"}, "file:3"},
		{"source filter", Query{Source: models.SourceInbox}, []string{"file:3"}, "file:3"},
		{"fuzzy", Query{Text: "accella", Fuzzy: true}, []string{"url:1", "file:3"}, ""},
		{"no match", Query{Text: "kubernetes"}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := x.Search(ctx, tt.q)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			got := make(map[string]bool)
			for _, h := range hits {
				got[h.ID] = true
			}
			if len(got) != len(tt.want) {
				t.Errorf("hits = %v, want %v", hits, tt.want)
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("missing %s in %v", id, hits)
				}
			}
			if tt.first != "" && (len(hits) == 0 || hits[0].ID != tt.first) {
				t.Errorf("first hit = %v, want %s", hits, tt.first)
			}
		})
	}
}

func TestIndex_HitFields(t *testing.T) {
	x, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer x.Close()
	seed(t, x)

	hits, err := x.Search(context.Background(), Query{Text: "civic platform"})
	if err != nil || len(hits) == 0 {
		t.Fatalf("Search() = %v, %v", hits, err)
	}
	h := hits[0]
	if h.URL != "https://sandiego.gov/accela-order-2024.pdf" || h.Location != "San Diego, CA" || h.Classification != models.ClassOrderForm {
		t.Errorf("hit = %+v", h)
	}
	if len(h.Fragments) == 0 {
		t.Error("expected highlighted fragments")
	}
}

func TestIndex_ReplaceAndDelete(t *testing.T) {
	x, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer x.Close()
	seed(t, x)
	ctx := context.Background()

	if err := x.Add(ctx, models.EvidenceDocument{ID: "url:1", Title: "Updated", Content: "updated text"}); err != nil {
		t.Fatal(err)
	}
	if n, _ := x.Count(); n != 3 {
		t.Errorf("Count() after replace = %d, want 3", n)
	}
	if err := x.Delete(ctx, "url:2"); err != nil {
		t.Fatal(err)
	}
	if n, _ := x.Count(); n != 2 {
		t.Errorf("Count() after delete = %d, want 2", n)
	}
	if err := x.Add(ctx, models.EvidenceDocument{Content: "no id"}); err == nil {
		t.Error("Add() without id should fail")
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.bleve")
	x, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	seed(t, x)
	if err := x.Close(); err != nil {
		t.Fatal(err)
	}

	x, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer x.Close()
	if n, _ := x.Count(); n != 3 {
		t.Errorf("Count() after reopen = %d, want 3", n)
	}
}
