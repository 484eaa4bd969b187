package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/AlosedAG/contract-finder/internal/evidence"
	"github.com/AlosedAG/contract-finder/internal/export"
	"github.com/AlosedAG/contract-finder/internal/inbox"
	"github.com/AlosedAG/contract-finder/internal/models"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after positionals are moved first",
			args:     []string{"Accela", "Civic Platform", "-queries", "5"},
			expected: []string{"-queries", "5", "Accela", "Civic Platform"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-intent", "license", "Accela"},
			expected: []string{"-intent", "license", "Accela"},
		},
		{
			name:     "positionals only returns unchanged",
			args:     []string{"Accela"},
			expected: []string{"Accela"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSearchTarget(t *testing.T) {
	tests := []struct {
		name        string
		company     string
		product     string
		args        []string
		wantCompany string
		wantProduct string
	}{
		{"flags only", "Accela", "Civic Platform", nil, "Accela", "Civic Platform"},
		{"positional company and product", "", "", []string{"Accela", "Civic", "Platform"}, "Accela", "Civic Platform"},
		{"flag company, positional product", "Tyler Technologies", "", []string{"Munis"}, "Tyler Technologies", "Munis"},
		{"company only", "", "", []string{"Accela"}, "Accela", ""},
		{"nothing", "", "", nil, "", ""},
		{"blank flag falls back", "  ", "", []string{"Accela"}, "Accela", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			company, product := searchTarget(tt.company, tt.product, tt.args)
			if company != tt.wantCompany || product != tt.wantProduct {
				t.Errorf("searchTarget() = %q, %q; want %q, %q", company, product, tt.wantCompany, tt.wantProduct)
			}
		})
	}
}

func TestSplitSubcommand(t *testing.T) {
	tests := []struct {
		args     []string
		wantSub  string
		wantRest []string
	}{
		{nil, "list", nil},
		{[]string{"-limit", "5"}, "list", []string{"-limit", "5"}},
		{[]string{"show", "run-1"}, "show", []string{"run-1"}},
	}
	for _, tt := range tests {
		sub, rest := splitSubcommand(tt.args, "list")
		if sub != tt.wantSub || !reflect.DeepEqual(rest, tt.wantRest) {
			t.Errorf("splitSubcommand(%v) = %q, %v; want %q, %v", tt.args, sub, rest, tt.wantSub, tt.wantRest)
		}
	}
}

func testReport() *models.RunReport {
	r := models.FinalResult{FinalScore: 8.5, Classification: models.ClassOrderForm}
	r.URL = "https://sandiego.gov/accela-order.pdf"
	r.NormalizedURL = r.URL
	r.Title = "Accela Order Form"
	r.Content.PricingMentions = []models.PricingMention{{Amount: 125000, Currency: "USD"}}
	return &models.RunReport{
		ID:        "run-1",
		Params:    models.RunParams{Company: "Accela", QueryCount: 1},
		StartedAt: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		Results:   []models.FinalResult{r},
	}
}

func TestSaveOutputs_JSONAlsoWritesCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "accela.json")

	written, err := saveOutputs(path, testReport())
	if err != nil {
		t.Fatal(err)
	}
	csvPath := filepath.Join(dir, "out", "accela.csv")
	if !reflect.DeepEqual(written, []string{path, csvPath}) {
		t.Fatalf("written = %v", written)
	}
	results, err := export.LoadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].URL != "https://sandiego.gov/accela-order.pdf" {
		t.Errorf("json results = %+v", results)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), strings.Join(export.CSVHeader, ",")) {
		t.Errorf("csv = %q", data)
	}
}

func TestSaveOutputs_OtherFormatsWriteOneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accela.xlsx")
	written, err := saveOutputs(path, testReport())
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 || written[0] != path {
		t.Errorf("written = %v", written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error(err)
	}
}

func TestEvidenceURL(t *testing.T) {
	got := evidenceURL("http://localhost:8080", evidence.Query{
		Text:           "annual fee",
		Company:        "Accela",
		Classification: models.ClassOrderForm,
		Limit:          5,
		Fuzzy:          true,
	})
	want := "http://localhost:8080/api/v1/evidence?classification=order_form&company=Accela&fuzzy=true&limit=5&q=annual+fee"
	if got != want {
		t.Errorf("evidenceURL() = %s, want %s", got, want)
	}
	if got := evidenceURL("http://h", evidence.Query{Text: "x"}); got != "http://h/api/v1/evidence?q=x" {
		t.Errorf("minimal evidenceURL() = %s", got)
	}
}

func TestEvidenceViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/evidence" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("q") == "broken" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"query": r.URL.Query().Get("q"),
			"hits":  []models.EvidenceHit{{ID: "doc-1", Score: 1.5, Title: "Order Form"}},
		})
	}))
	defer srv.Close()

	hits, err := evidenceViaHTTP(srv.Client(), srv.URL, evidence.Query{Text: "fee"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "doc-1" {
		t.Errorf("hits = %+v", hits)
	}
	if _, err := evidenceViaHTTP(srv.Client(), srv.URL, evidence.Query{Text: "broken"}); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("err = %v, want server 500 error", err)
	}
}

func TestFormatIngest(t *testing.T) {
	ok := inbox.Result{Path: "/in/order.pdf"}
	ok.Document.Classification = models.ClassOrderForm
	ok.Document.Location = "San Diego, CA"
	ok.Content.PricingMentions = []models.PricingMention{{Amount: 1}}
	if got := formatIngest(ok); got != "INDEXED  /in/order.pdf  [order_form] San Diego, CA, 1 price(s), 0 date(s)" {
		t.Errorf("formatIngest(ok) = %q", got)
	}
	unknown := inbox.Result{Path: "/in/a.txt"}
	if got := formatIngest(unknown); !strings.Contains(got, "] Unknown,") {
		t.Errorf("formatIngest(unknown) = %q", got)
	}
	failed := inbox.Result{Path: "/in/b.pdf", Err: errors.New("no text")}
	if got := formatIngest(failed); got != "FAILED   /in/b.pdf: no text" {
		t.Errorf("formatIngest(failed) = %q", got)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./runs.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
	if filepath.Base(cfg.Storage.DatabasePath) != "runs.db" || !filepath.IsAbs(cfg.Storage.DatabasePath) {
		t.Errorf("DatabasePath = %s, want absolute path ending in runs.db", cfg.Storage.DatabasePath)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
search:
  provider: static
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Search.Provider != "static" {
		t.Errorf("Search.Provider = %q", cfg.Search.Provider)
	}
}

func TestLoadConfig_missingExplicitPath(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config")
	}
}
