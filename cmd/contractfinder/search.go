package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/AlosedAG/contract-finder/internal/cli"
	"github.com/AlosedAG/contract-finder/internal/diversity"
	"github.com/AlosedAG/contract-finder/internal/export"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/internal/websearch"
)

const defaultQueryCount = 10

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: contractfinder search [flags] [company] [product]\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
The company is required, either as --company or the first argument. A product
narrows the search; without one every query targets the company alone.

Examples:
  contractfinder search Accela "Civic Platform"
  contractfinder search --intent license --queries 5 --company "Tyler Technologies"
  contractfinder search --save out/accela.xlsx Accela
`)
}

// searchTarget resolves the company and product from flags, falling back to
// positional arguments: the first is the company, the rest the product.
func searchTarget(company, product string, args []string) (string, string) {
	company = strings.TrimSpace(company)
	product = strings.TrimSpace(product)
	if company == "" && len(args) > 0 {
		company = strings.TrimSpace(args[0])
		args = args[1:]
	}
	if product == "" {
		product = joinArgs(args)
	}
	return company, product
}

// saveOutputs writes report to path. A JSON save also writes a CSV next to
// it. Returns the files written.
func saveOutputs(path string, report *models.RunReport) ([]string, error) {
	if err := export.Save(path, report); err != nil {
		return nil, err
	}
	written := []string{path}
	if export.FormatFromPath(path) != export.FormatJSON {
		return written, nil
	}
	csvPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
	if csvPath == path {
		csvPath = path + ".csv"
	}
	if err := export.Save(csvPath, report); err != nil {
		return written, err
	}
	return append(written, csvPath), nil
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	company := fs.String("company", "", "vendor name")
	product := fs.String("product", "", "product name (optional)")
	intent := fs.String("intent", "both", "license, implementation or both")
	queries := fs.Int("queries", defaultQueryCount, "number of queries to run")
	provider := fs.String("provider", "", "search provider override: duckduckgo, bing or static")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	top := fs.Int("top", 0, "show only the first n results (stored and saved runs keep all)")
	savePath := fs.String("save", "", "also write results to this file (.json, .csv, .xlsx, .docx)")
	noValidate := fs.Bool("no-validate", false, "skip link validation")
	noExtract := fs.Bool("no-extract", false, "skip document download and extraction")
	noStore := fs.Bool("no-store", false, "do not record the run in the database")
	noPrompt := fs.Bool("no-prompt", false, "do not prompt when a search challenge appears")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	companyName, productName := searchTarget(*company, *product, fs.Args())
	if companyName == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	parsedIntent, err := models.ParseIntent(*intent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid intent: %v\n", err)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *provider != "" {
		cfg.Search.Provider = *provider
	}
	cfg.Pipeline.SkipValidation = cfg.Pipeline.SkipValidation || *noValidate
	cfg.Pipeline.SkipExtraction = cfg.Pipeline.SkipExtraction || *noExtract

	logger := cliLogger(cfg.Debug || *debug)
	defer logger.Sync()

	opts := componentOptions{withStorage: !*noStore}
	if !*noPrompt {
		opts.challenge = websearch.NewPromptHandler(os.Stdin, os.Stderr)
	}
	components, err := initializeComponents(cfg, logger, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()
	if components.Evidence == nil {
		fmt.Fprintln(os.Stderr, "Warning: evidence index unavailable (is the server running?); extracted text will not be searchable")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Searching for %s...\n", strings.TrimSpace(companyName+" "+productName))
	report, runErr := components.Pipeline.Run(ctx, models.RunParams{
		Company:    companyName,
		Product:    productName,
		Intent:     parsedIntent,
		QueryCount: *queries,
	})
	if report == nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", runErr)
		os.Exit(1)
	}

	shown := *report
	shown.Results = diversity.TopN(report.Results, *top)
	if err := cli.WriteReport(os.Stdout, &shown, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if components.Storage != nil {
		if err := components.Storage.SaveRun(context.Background(), report); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to store run: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Run stored as %s\n", report.ID)
		}
	}
	if *savePath != "" {
		written, err := saveOutputs(*savePath, report)
		for _, p := range written {
			fmt.Fprintf(os.Stderr, "Results written to %s\n", p)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Save failed: %v\n", err)
			os.Exit(1)
		}
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Search stopped early: %v\n", runErr)
		os.Exit(1)
	}
}
