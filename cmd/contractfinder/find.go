package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/AlosedAG/contract-finder/internal/cli"
	"github.com/AlosedAG/contract-finder/internal/evidence"
	"github.com/AlosedAG/contract-finder/internal/inbox"
	"github.com/AlosedAG/contract-finder/internal/models"
)

func runFind() {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct index access)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the evidence index directly)")
	company := fs.String("company", "", "only documents found for this vendor")
	classification := fs.String("classification", "", "only documents of this type")
	source := fs.String("source", "", "run or inbox")
	limit := fs.Int("limit", evidence.DefaultLimit, "number of hits")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	text := joinArgs(fs.Args())
	if text == "" {
		fmt.Println("Usage: contractfinder find [flags] <text>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	query := evidence.Query{
		Text:           text,
		Company:        *company,
		Classification: models.DocumentClassification(*classification),
		Source:         *source,
		Limit:          *limit,
		Fuzzy:          *fuzzy,
	}

	var search func(evidence.Query) ([]models.EvidenceHit, error)
	if *serverURL != "" {
		// The server holds the index lock; go through its API.
		search = func(q evidence.Query) ([]models.EvidenceHit, error) {
			return evidenceViaHTTP(http.DefaultClient, *serverURL, q)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		idx, err := evidence.Open(cfg.Storage.EvidenceIndexPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open evidence index: %v\n", err)
			os.Exit(1)
		}
		defer idx.Close()
		search = func(q evidence.Query) ([]models.EvidenceHit, error) {
			return idx.Search(context.Background(), q)
		}
	}

	hits, err := search(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Find failed: %v\n", err)
		os.Exit(1)
	}
	// Auto-retry with fuzzy if nothing matched exactly.
	if len(hits) == 0 && !query.Fuzzy {
		query.Fuzzy = true
		if fuzzyHits, fuzzyErr := search(query); fuzzyErr == nil && len(fuzzyHits) > 0 {
			hits = fuzzyHits
			if format == cli.OutputText {
				fmt.Println("(no exact matches; showing fuzzy matches)")
			}
		}
	}
	if err := cli.WriteEvidenceHits(os.Stdout, text, hits, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// evidenceURL builds the evidence search URL for q.
func evidenceURL(serverURL string, q evidence.Query) string {
	v := url.Values{}
	v.Set("q", q.Text)
	if q.Company != "" {
		v.Set("company", q.Company)
	}
	if q.Classification != "" {
		v.Set("classification", string(q.Classification))
	}
	if q.Source != "" {
		v.Set("source", q.Source)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Fuzzy {
		v.Set("fuzzy", "true")
	}
	return serverURL + "/api/v1/evidence?" + v.Encode()
}

func evidenceViaHTTP(client *http.Client, serverURL string, q evidence.Query) ([]models.EvidenceHit, error) {
	resp, err := client.Get(evidenceURL(serverURL, q))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var body struct {
		Hits []models.EvidenceHit `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body.Hits, nil
}

// formatIngest renders one inbox result as a single line.
func formatIngest(res inbox.Result) string {
	if res.Err != nil {
		return fmt.Sprintf("FAILED   %s: %v", res.Path, res.Err)
	}
	location := res.Document.Location
	if location == "" {
		location = "Unknown"
	}
	return fmt.Sprintf("INDEXED  %s  [%s] %s, %d price(s), %d date(s)",
		res.Path, res.Document.Classification, location,
		len(res.Content.PricingMentions), len(res.Content.Dates))
}

func runInbox() {
	fs := flag.NewFlagSet("inbox", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	company := fs.String("company", "", "vendor the documents relate to")
	product := fs.String("product", "", "product the documents relate to")
	once := fs.Bool("once", false, "ingest existing files and exit instead of watching")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	dirs := fs.Args()
	if len(dirs) == 0 {
		dirs = cfg.Inbox.Directories
	}
	if len(dirs) == 0 {
		fmt.Println("Usage: contractfinder inbox [flags] <dir>... (or set inbox.directories in the config)")
		os.Exit(1)
	}
	logger := cliLogger(cfg.Debug || *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, componentOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()
	if components.Evidence == nil {
		fmt.Fprintln(os.Stderr, "Evidence index unavailable; stop the server or point storage.evidence_index_path elsewhere")
		os.Exit(1)
	}

	ingester := inbox.NewIngester(components.Extractor, components.Evidence, inbox.IngesterConfig{
		Company:   *company,
		Product:   *product,
		Analyzer:  cfg.Analyzer,
		Gazetteer: components.Gazetteer,
		OnResult:  func(res inbox.Result) { fmt.Println(formatIngest(res)) },
		Logger:    logger,
	})
	w := inbox.NewWatcher(dirs, cfg.Inbox.Extensions, cfg.Inbox.RecursiveOrDefault(), ingester,
		inbox.WithLogger(logger), inbox.WithDebounce(cfg.Inbox.Debounce))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *once {
		for _, dir := range dirs {
			if _, err := os.Stat(dir); err != nil {
				fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", dir, err)
			}
		}
		w.SyncExisting(ctx)
		return
	}
	if err := w.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to watch: %v\n", err)
		os.Exit(1)
	}
	w.SyncExisting(ctx)
	fmt.Printf("Watching %d director(ies); press Ctrl+C to stop\n", len(w.Directories()))
	<-ctx.Done()
	w.Stop()
}
