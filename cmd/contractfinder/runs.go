package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/AlosedAG/contract-finder/internal/cli"
	"github.com/AlosedAG/contract-finder/internal/export"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/internal/storage"
)

// splitSubcommand returns the subcommand and its remaining args. A missing
// subcommand, or one that starts with a flag, means def.
func splitSubcommand(args []string, def string) (string, []string) {
	if len(args) == 0 || (len(args[0]) > 0 && args[0][0] == '-') {
		return def, args
	}
	return args[0], args[1:]
}

func openStorage(configPath string) *storage.SQLiteStorage {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runRuns() {
	sub, rest := splitSubcommand(os.Args[2:], "list")
	fs := flag.NewFlagSet("runs "+sub, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	offset := fs.Int("offset", 0, "skip this many runs")
	limit := fs.Int("limit", 20, "number of runs to list")
	_ = fs.Parse(argsReorder(rest))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	store := openStorage(*configPath)
	defer store.Close()
	ctx := context.Background()

	switch sub {
	case "list":
		runs, err := store.ListRuns(ctx, *offset, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteRuns(os.Stdout, runs, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "show":
		id := requireRunID(fs, "show")
		report, err := store.GetRun(ctx, id)
		if err != nil {
			exitRunError(id, err)
		}
		if err := cli.WriteReport(os.Stdout, report, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "delete":
		id := requireRunID(fs, "delete")
		if err := store.DeleteRun(ctx, id); err != nil {
			exitRunError(id, err)
		}
		fmt.Printf("Run deleted: %s\n", id)
	default:
		fmt.Printf("Unknown runs subcommand: %s\n", sub)
		fmt.Println("Usage: contractfinder runs [list|show <run-id>|delete <run-id>] [flags]")
		os.Exit(1)
	}
}

func requireRunID(fs *flag.FlagSet, sub string) string {
	if fs.NArg() < 1 {
		fmt.Printf("Usage: contractfinder runs %s [flags] <run-id>\n", sub)
		os.Exit(1)
	}
	return fs.Arg(0)
}

func exitRunError(id string, err error) {
	if errors.Is(err, models.ErrRunNotFound) {
		fmt.Fprintf(os.Stderr, "Run not found: %s\n", id)
	} else {
		fmt.Fprintf(os.Stderr, "Run %s: %v\n", id, err)
	}
	os.Exit(1)
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	formatName := fs.String("format", "", "json, csv, xlsx or docx (default: from the file extension; required for -)")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 2 {
		fmt.Println("Usage: contractfinder export [flags] <run-id> <file|->")
		os.Exit(1)
	}
	id, path := fs.Arg(0), fs.Arg(1)

	store := openStorage(*configPath)
	defer store.Close()
	report, err := store.GetRun(context.Background(), id)
	if err != nil {
		exitRunError(id, err)
	}

	if path == "-" || *formatName != "" {
		format := export.FormatJSON
		if *formatName != "" {
			if format, err = export.ParseFormat(*formatName); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
		out := os.Stdout
		if path != "-" {
			if out, err = os.Create(path); err != nil {
				fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
				os.Exit(1)
			}
			defer out.Close()
		}
		if err := export.Write(out, format, report); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	written, err := saveOutputs(path, report)
	for _, p := range written {
		fmt.Printf("Exported %d result(s) to %s\n", len(report.Results), p)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
}
