package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/AlosedAG/contract-finder/internal/models"
)

func TestGenerate_InvalidInput(t *testing.T) {
	g := NewGenerator()
	tests := []struct {
		name    string
		company string
		n       int
	}{
		{"empty company", "", 5},
		{"blank company", "  ", 5},
		{"zero count", "Accela", 0},
		{"negative count", "Accela", -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(tt.company, "Civic Platform", models.IntentBoth, tt.n)
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("Generate() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestGenerate_OrderAndCount(t *testing.T) {
	g := NewGenerator()
	qs, err := g.Generate("Accela", "Civic Platform", models.IntentLicense, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		`"Accela" "Civic Platform" order form`,
		`"Accela" "Civic Platform" renewal order form`,
		`"Accela" "Civic Platform" subscription services agreement`,
	}
	if len(qs) != len(want) {
		t.Fatalf("got %d queries, want %d", len(qs), len(want))
	}
	for i, q := range qs {
		if q.Text != want[i] {
			t.Errorf("query %d = %q, want %q", i, q.Text, want[i])
		}
		if q.Intent != models.IntentLicense {
			t.Errorf("query %d intent = %q", i, q.Intent)
		}
	}
}

func TestGenerate_EmptyProduct(t *testing.T) {
	g := NewGenerator()
	qs, err := g.Generate("Tyler Technologies", "", models.IntentBoth, 2)
	if err != nil {
		t.Fatal(err)
	}
	if qs[0].Text != `"Tyler Technologies" order form` {
		t.Errorf("got %q", qs[0].Text)
	}
}

func TestGenerate_PairwiseWithoutDuplicates(t *testing.T) {
	g := NewGenerator()
	templates := Templates(models.IntentBoth)
	unscoped := 0
	for _, tpl := range templates {
		if !tpl.Scoped {
			unscoped++
		}
	}
	maxQueries := len(templates) + unscoped*(unscoped-1)/2

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"exactly singles", len(templates), len(templates)},
		{"some pairs", len(templates) + 4, len(templates) + 4},
		{"exhausted", maxQueries + 50, maxQueries},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := g.Generate("Accela", "Civic Platform", models.IntentBoth, tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if len(qs) != tt.want {
				t.Fatalf("got %d queries, want %d", len(qs), tt.want)
			}
			seen := make(map[string]bool)
			for _, q := range qs {
				key := strings.ToLower(q.Text)
				if seen[key] {
					t.Fatalf("duplicate query %q", q.Text)
				}
				seen[key] = true
			}
			if tt.n > len(templates) && qs[len(templates)].Category != "combined" {
				t.Errorf("first overflow query should be a combination, got %q", qs[len(templates)].Category)
			}
		})
	}
}

func TestGenerate_HugeCountExhaustsCombinations(t *testing.T) {
	templates := Templates(models.IntentBoth)
	unscoped := 0
	for _, tpl := range templates {
		if !tpl.Scoped {
			unscoped++
		}
	}
	qs, err := NewGenerator().Generate("Accela", "Civic Platform", models.IntentBoth, 1<<50)
	if err != nil {
		t.Fatal(err)
	}
	if want := len(templates) + unscoped*(unscoped-1)/2; len(qs) != want {
		t.Errorf("got %d queries, want the full combination space %d", len(qs), want)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator()
	a, _ := g.Generate("Accela", "Civic Platform", models.IntentImplementation, 40)
	b, _ := g.Generate("Accela", "Civic Platform", models.IntentImplementation, 40)
	if len(a) != len(b) {
		t.Fatal("length differs between runs")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("query %d differs: %q vs %q", i, a[i].Text, b[i].Text)
		}
	}
}

func TestTemplates_IntentVocabulary(t *testing.T) {
	has := func(ts []Template, phrase string) bool {
		for _, tpl := range ts {
			if tpl.Phrase == phrase {
				return true
			}
		}
		return false
	}
	if !has(Templates(models.IntentLicense), "software license agreement") {
		t.Error("license intent should include software license agreement")
	}
	if has(Templates(models.IntentLicense), "statement of work") {
		t.Error("license intent should not include statement of work")
	}
	both := Templates(models.IntentBoth)
	if !has(both, "statement of work") || !has(both, "SaaS agreement") {
		t.Error("both intent should include both vocabularies")
	}
}
