package e2e

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AlosedAG/contract-finder/internal/config"
	"github.com/AlosedAG/contract-finder/internal/evidence"
	"github.com/AlosedAG/contract-finder/internal/export"
	"github.com/AlosedAG/contract-finder/internal/extract"
	"github.com/AlosedAG/contract-finder/internal/fetch"
	"github.com/AlosedAG/contract-finder/internal/geo"
	"github.com/AlosedAG/contract-finder/internal/inbox"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/internal/pipeline"
	"github.com/AlosedAG/contract-finder/internal/server"
	"github.com/AlosedAG/contract-finder/internal/storage"
	"github.com/AlosedAG/contract-finder/internal/websearch"
)

type harness struct {
	dir      string
	web      *Web
	corpus   *Corpus
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	evidence *evidence.Index
	store    *storage.SQLiteStorage
}

// newHarness wires the real collaborators the way the CLI does, with search
// answered from a fixture and every HTTP request sent to the simulated web.
func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	web := NewWeb()
	t.Cleanup(web.Close)

	corpus := AccelaCorpus()
	if err := corpus.Install(web); err != nil {
		t.Fatal(err)
	}
	fixture := filepath.Join(dir, "search.json")
	if err := corpus.WriteSearchFixture(fixture); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Search.Provider = websearch.ProviderStatic
	cfg.Search.StaticPath = fixture
	cfg.Storage.DatabasePath = filepath.Join(dir, "runs.db")
	cfg.Storage.EvidenceIndexPath = filepath.Join(dir, "evidence")

	searcher, err := websearch.New(cfg.Search)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := evidence.Open(cfg.Storage.EvidenceIndexPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	client := fetch.New(cfg.Fetch, fetch.WithHTTPClient(web.Client()))
	p := pipeline.New(cfg.Pipeline,
		pipeline.WithSearcher(searcher),
		pipeline.WithValidator(client),
		pipeline.WithDownloader(client),
		pipeline.WithExtractor(extract.Default(extract.WithMaxPages(cfg.Extract.MaxPages))),
		pipeline.WithEvidenceIndex(idx),
		pipeline.WithClassifier(cfg.Blocklist.Classifier()),
		pipeline.WithGazetteer(geo.DefaultGazetteer()),
		pipeline.WithRankingConfig(&cfg.Ranking),
		pipeline.WithAnalyzerOptions(cfg.Analyzer),
	)
	return &harness{dir: dir, web: web, corpus: corpus, cfg: cfg, pipeline: p, evidence: idx, store: store}
}

func (h *harness) run(t *testing.T) *models.RunReport {
	t.Helper()
	report, err := h.pipeline.Run(context.Background(), models.RunParams{
		Company:    h.corpus.Company,
		Product:    h.corpus.Product,
		Intent:     models.IntentBoth,
		QueryCount: 3,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return report
}

func resultByURL(report *models.RunReport, rawURL string) *models.FinalResult {
	for i := range report.Results {
		if report.Results[i].URL == rawURL {
			return &report.Results[i]
		}
	}
	return nil
}

func TestE2E_AccelaDiscovery(t *testing.T) {
	h := newHarness(t)
	report := h.run(t)

	if len(report.Queries) != 3 {
		t.Errorf("queries = %d, want 3", len(report.Queries))
	}
	if len(report.Results) != 4 {
		t.Fatalf("results = %d, want 4 (vendor page blocked, fragment collapsed)", len(report.Results))
	}
	if h.web.Hits(VendorPricingURL) != 0 {
		t.Error("blocked vendor page was fetched")
	}
	for _, r := range report.Results {
		if strings.Contains(r.URL, "#") {
			t.Errorf("fragment duplicate survived: %s", r.URL)
		}
	}

	order := resultByURL(report, SanDiegoOrderURL)
	if order == nil {
		t.Fatal("San Diego order form missing")
	}
	if order.Classification != models.ClassOrderForm {
		t.Errorf("order Classification = %s", order.Classification)
	}
	if order.Location.Name != "San Diego" || order.Location.StateCode != "CA" {
		t.Errorf("order Location = %+v", order.Location)
	}
	if top := order.TopPricing(); top == nil || top.Amount != 125000 || top.Currency != "USD" {
		t.Errorf("order TopPricing = %+v", top)
	}
	if !order.Validated || order.ExtractionStatus != models.ExtractionExtracted || !order.Content.CompanyProductMentioned {
		t.Errorf("order validated=%v status=%s mentioned=%v", order.Validated, order.ExtractionStatus, order.Content.CompanyProductMentioned)
	}
	for _, r := range report.Results {
		if r.FinalScore > order.FinalScore {
			t.Errorf("%s scored %v above the order form (%v)", r.URL, r.FinalScore, order.FinalScore)
		}
	}

	fees := resultByURL(report, AustinFeesURL)
	if fees == nil {
		t.Fatal("Austin fee schedule missing")
	}
	if fees.Location.Name != "Austin" || fees.ExtractionStatus != models.ExtractionExtracted {
		t.Errorf("fees location=%+v status=%s", fees.Location, fees.ExtractionStatus)
	}
	if top := fees.TopPricing(); top == nil || top.Amount != 48500 {
		t.Errorf("fees TopPricing = %+v", top)
	}

	archived := resultByURL(report, ArchivedURL)
	if archived == nil || archived.Validated || archived.ExtractionStatus != models.ExtractionSkipped {
		t.Errorf("archived = %+v, want unreachable and skipped", archived)
	}
	staff := resultByURL(report, StaffReportURL)
	if staff == nil || !staff.Validated || staff.ExtractionStatus != models.ExtractionSkipped {
		t.Errorf("staff report = %+v, want reachable and not downloaded", staff)
	}

	if s := report.Stage(models.StageValidation); s == nil || s.Status != models.StagePartial || s.Failed != 1 {
		t.Errorf("validation stage = %+v, want partial with one failure", s)
	}
	if s := report.Stage(models.StageExtraction); s == nil || s.Status != models.StageOK || s.Processed != 2 {
		t.Errorf("extraction stage = %+v, want ok with two documents", s)
	}
	var sawArchived bool
	for _, f := range report.Failures {
		if f.Stage == models.StageValidation && f.Subject == ArchivedURL {
			sawArchived = true
		}
	}
	if !sawArchived {
		t.Errorf("failures = %+v, want validation failure for %s", report.Failures, ArchivedURL)
	}
	for i, r := range report.Results {
		if r.Rank != i+1 {
			t.Errorf("results[%d].Rank = %d", i, r.Rank)
		}
	}

	n, err := h.evidence.Count()
	if err != nil || n != 2 {
		t.Fatalf("evidence count = %d, %v; want 2", n, err)
	}
	hits, err := h.evidence.Search(context.Background(), evidence.Query{Text: "renewal", Company: "accela"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].URL != SanDiegoOrderURL || hits[0].Location != "San Diego, CA" {
		t.Errorf("evidence hits = %+v", hits)
	}
}

func TestE2E_StoreAndExport(t *testing.T) {
	h := newHarness(t)
	report := h.run(t)
	ctx := context.Background()

	if err := h.store.SaveRun(ctx, report); err != nil {
		t.Fatal(err)
	}
	got, err := h.store.GetRun(ctx, report.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Results) != len(report.Results) || got.Results[0].URL != report.Results[0].URL {
		t.Errorf("stored run differs: %d results, first %s", len(got.Results), got.Results[0].URL)
	}
	top, err := h.store.TopResults(ctx, storage.ResultFilter{Company: "Accela", ConfirmedOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(top) == 0 {
		t.Error("no confirmed results stored")
	}

	for _, ext := range []string{".json", ".csv", ".xlsx", ".docx"} {
		path := filepath.Join(h.dir, "export", "accela"+ext)
		if err := export.Save(path, got); err != nil {
			t.Fatalf("export %s: %v", ext, err)
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("export %s missing or empty", ext)
		}
	}

	f, err := os.Open(filepath.Join(h.dir, "export", "accela.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(report.Results)+1 {
		t.Errorf("csv rows = %d, want header + %d", len(rows), len(report.Results))
	}
	loaded, err := export.LoadJSON(filepath.Join(h.dir, "export", "accela.json"))
	if err != nil || len(loaded) != len(report.Results) {
		t.Errorf("json export = %d results, %v", len(loaded), err)
	}
}

func TestE2E_ServerRunAndExport(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(server.NewServer(h.pipeline, h.store, h.evidence, &h.cfg.Server, nil).Routes())
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{
		"company":     h.corpus.Company,
		"product":     h.corpus.Product,
		"query_count": 2,
	})
	resp, err := http.Post(srv.URL+"/api/v1/runs", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	var report models.RunReport
	err = json.NewDecoder(resp.Body).Decode(&report)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated || report.ID == "" || len(report.Results) != 4 {
		t.Fatalf("POST /runs = %d, id %q, %d results", resp.StatusCode, report.ID, len(report.Results))
	}

	resp, err = http.Get(srv.URL + "/api/v1/runs/" + report.ID + "/export?format=csv")
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(resp.Body).ReadAll()
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv") {
		t.Errorf("export = %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if len(rows) != 5 || rows[1][3] != report.Results[0].URL {
		t.Errorf("csv rows = %v", rows)
	}

	resp, err = http.Get(srv.URL + "/api/v1/evidence?q=renewal")
	if err != nil {
		t.Fatal(err)
	}
	var found struct {
		Hits []models.EvidenceHit `json:"hits"`
	}
	err = json.NewDecoder(resp.Body).Decode(&found)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(found.Hits) != 1 || found.Hits[0].URL != SanDiegoOrderURL {
		t.Errorf("evidence hits = %+v", found.Hits)
	}
}

func TestE2E_InboxDocumentsAreSearchable(t *testing.T) {
	h := newHarness(t)
	h.run(t)

	dir := filepath.Join(h.dir, "inbox")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data, err := DocumentBytes(".docx", []string{
		"PURCHASE ORDER",
		"Bill To: City of Berkeley",
		"Accela Civic Platform annual maintenance renewal",
		"Total: $64,250.00",
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "berkeley-po.docx")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	in := inbox.NewIngester(extract.Default(), h.evidence, inbox.IngesterConfig{
		Company: h.corpus.Company,
		Product: h.corpus.Product,
	})
	res := in.Process(context.Background(), path)
	if res.Err != nil {
		t.Fatalf("Process() error = %v", res.Err)
	}
	if top := res.Content.PricingMentions; len(top) == 0 || top[0].Amount != 64250 {
		t.Errorf("pricing = %+v", top)
	}

	hits, err := h.evidence.Search(context.Background(), evidence.Query{Text: "renewal", Source: models.SourceInbox})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Path != res.Path {
		t.Errorf("inbox hits = %+v, want %s", hits, res.Path)
	}
	all, err := h.evidence.Search(context.Background(), evidence.Query{Text: "renewal"})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("hits across sources = %d, want run and inbox documents", len(all))
	}
}
