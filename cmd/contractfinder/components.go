package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/AlosedAG/contract-finder/internal/config"
	"github.com/AlosedAG/contract-finder/internal/evidence"
	"github.com/AlosedAG/contract-finder/internal/extract"
	"github.com/AlosedAG/contract-finder/internal/fetch"
	"github.com/AlosedAG/contract-finder/internal/geo"
	"github.com/AlosedAG/contract-finder/internal/pipeline"
	"github.com/AlosedAG/contract-finder/internal/storage"
	"github.com/AlosedAG/contract-finder/internal/websearch"
)

// Components holds initialized services. Evidence is nil when the index
// could not be opened, for example while a server holds its lock.
type Components struct {
	Storage   *storage.SQLiteStorage
	Evidence  *evidence.Index
	Gazetteer *geo.Gazetteer
	Extractor *extract.Chain
	Pipeline  *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Evidence != nil {
		_ = c.Evidence.Close()
	}
}

type componentOptions struct {
	// withStorage opens the run database; failure is fatal.
	withStorage bool
	challenge   websearch.ChallengeHandler
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, opts componentOptions) (*Components, error) {
	c := &Components{}
	if opts.withStorage {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
	}

	idx, err := evidence.Open(cfg.Storage.EvidenceIndexPath)
	if err != nil {
		logger.Warn("evidence index unavailable, extracted text will not be kept",
			zap.String("path", cfg.Storage.EvidenceIndexPath), zap.Error(err))
	} else {
		c.Evidence = idx
	}

	c.Gazetteer = geo.DefaultGazetteer()
	if cfg.Geo.GazetteerPath != "" {
		g, err := geo.LoadGazetteer(cfg.Geo.GazetteerPath)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Gazetteer = g
	}
	c.Extractor = extract.Default(extract.WithMaxPages(cfg.Extract.MaxPages))

	searchOpts := []websearch.Option{websearch.WithLogger(logger)}
	if opts.challenge != nil {
		searchOpts = append(searchOpts, websearch.WithChallengeHandler(opts.challenge))
	}
	searcher, err := websearch.New(cfg.Search, searchOpts...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize search provider: %w", err)
	}
	client := fetch.New(cfg.Fetch, fetch.WithLogger(logger))

	pipeOpts := []pipeline.Option{
		pipeline.WithSearcher(searcher),
		pipeline.WithValidator(client),
		pipeline.WithDownloader(client),
		pipeline.WithExtractor(c.Extractor),
		pipeline.WithClassifier(cfg.Blocklist.Classifier()),
		pipeline.WithGazetteer(c.Gazetteer),
		pipeline.WithRankingConfig(&cfg.Ranking),
		pipeline.WithAnalyzerOptions(cfg.Analyzer),
		pipeline.WithLogger(logger),
	}
	if c.Evidence != nil {
		pipeOpts = append(pipeOpts, pipeline.WithEvidenceIndex(c.Evidence))
	}
	c.Pipeline = pipeline.New(cfg.Pipeline, pipeOpts...)
	return c, nil
}
