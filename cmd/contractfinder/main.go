// Package main is the contract-finder CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AlosedAG/contract-finder/internal/config"
	"github.com/AlosedAG/contract-finder/internal/inbox"
	"github.com/AlosedAG/contract-finder/internal/server"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

var version = "dev"

const defaultConfigPath = config.DefaultConfigPath

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, and a missing default file yields the
// built-in defaults. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// cliLogger returns a development logger in debug mode and a no-op logger
// otherwise, keeping interactive output readable.
func cliLogger(debug bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	logger, err := utils.NewLogger(true)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "search":
		runSearch()
	case "server", "serve":
		runServer()
	case "runs":
		runRuns()
	case "export":
		runExport()
	case "find":
		runFind()
	case "inbox":
		runInbox()
	case "version", "--version", "-v":
		fmt.Printf("contractfinder version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	// No challenge handler: a server has no terminal to prompt on.
	components, err := initializeComponents(cfg, logger, componentOptions{withStorage: true})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *inbox.Watcher
	if len(cfg.Inbox.Directories) > 0 && components.Evidence != nil {
		ingester := inbox.NewIngester(components.Extractor, components.Evidence, inbox.IngesterConfig{
			Analyzer:  cfg.Analyzer,
			Gazetteer: components.Gazetteer,
			Logger:    logger,
		})
		watchSvc = inbox.NewWatcher(
			cfg.Inbox.Directories,
			cfg.Inbox.Extensions,
			cfg.Inbox.RecursiveOrDefault(),
			ingester,
			inbox.WithLogger(logger),
			inbox.WithDebounce(cfg.Inbox.Debounce),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start inbox watcher", zap.Error(err))
		}
		watchSvc.SyncExisting(watchCtx)
	}

	var evidence server.EvidenceSearcher
	if components.Evidence != nil {
		evidence = components.Evidence
	}
	srv := server.NewServer(components.Pipeline, components.Storage, evidence, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// argsReorder moves any flags (and their values) that appear after the
// positional arguments to the front of the slice so that flag.Parse() sees
// them. Go's flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args with spaces so multi-word values work the
// same with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func printUsage() {
	fmt.Println(`contractfinder - Public-sector contract and pricing evidence finder

Usage:
  contractfinder search [flags] [company] [product]   Run discovery for a vendor
  contractfinder server [flags]                       Start the HTTP server
  contractfinder runs [list|show|delete] [flags]      Manage stored runs
  contractfinder export [flags] <run-id> <file>       Export a stored run
  contractfinder find [flags] <text>                  Search extracted evidence
  contractfinder inbox [flags] [dir...]               Ingest manually downloaded documents
  contractfinder version                              Show version
  contractfinder help                                 Show this help

Search Flags:
  --company string    Vendor name (or first positional argument)
  --product string    Product name (optional; second positional argument)
  --intent string     license, implementation or both (default: both)
  --queries int       Number of queries to run (default: 10)
  --provider string   Search provider: duckduckgo, bing or static
  --output string     Output format: text, compact or json (default: text)
  --save string       Also write results to a file (.json, .csv, .xlsx or .docx)
  --no-validate       Skip link validation
  --no-extract        Skip document download and extraction
  --no-store          Do not record the run in the database
  --no-prompt         Fail instead of asking for help with search challenges
  --config string     Config file path (default: /usr/local/etc/contractfinder/config.yaml)
  --debug             Enable debug logging

Server Flags:
  --config string    Config file path
  --debug            Enable debug logging

Find Flags:
  --server string          Server URL (default: http://localhost:8080). Use empty (--server "") to open the index directly.
  --company string         Only documents found for this vendor
  --classification string  Only documents of this type (e.g. order_form)
  --source string          run or inbox
  --limit int              Number of hits (default: 20)
  --fuzzy                  Typo-tolerant matching

Examples:
  contractfinder search Accela "Civic Platform"
  contractfinder search --company "Tyler Technologies" --product Munis --intent license --queries 5
  contractfinder search --save results.json Accela
  contractfinder runs
  contractfinder runs show <run-id>
  contractfinder export <run-id> results.xlsx
  contractfinder find "annual subscription fee"
  contractfinder inbox --company Accela ~/Downloads/contracts`)
}
