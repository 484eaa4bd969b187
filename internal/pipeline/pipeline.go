// Package pipeline drives a discovery run: query generation, collection,
// scoring, location and diversity, link validation, then content extraction
// and re-ranking. Each stage returns new records; collaborators that touch
// the network are injected.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AlosedAG/contract-finder/internal/blocklist"
	"github.com/AlosedAG/contract-finder/internal/collect"
	"github.com/AlosedAG/contract-finder/internal/content"
	"github.com/AlosedAG/contract-finder/internal/diversity"
	"github.com/AlosedAG/contract-finder/internal/fetch"
	"github.com/AlosedAG/contract-finder/internal/geo"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/internal/query"
	"github.com/AlosedAG/contract-finder/internal/ranking"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

// LinkValidator checks that a result URL still resolves. A validator that also
// implements ValidateAll(ctx, urls) []models.Validation is given the whole
// batch at once.
type LinkValidator interface {
	Validate(ctx context.Context, url string) models.Validation
}

type batchValidator interface {
	ValidateAll(ctx context.Context, urls []string) []models.Validation
}

// Downloader fetches evidence document bytes.
type Downloader interface {
	Download(ctx context.Context, url string) (*fetch.Document, error)
}

// TextExtractor turns document bytes into text. It returns extract.ErrNoText
// for documents without a text layer and extract.ErrUnavailable when no
// extraction backend is configured.
type TextExtractor interface {
	ExtractBytes(content []byte, ext string) (string, error)
}

// EvidenceIndex keeps extracted text searchable after the run.
type EvidenceIndex interface {
	Add(ctx context.Context, doc models.EvidenceDocument) error
}

// Config tunes the stages after collection.
type Config struct {
	DiversityCap   int  `yaml:"diversity_cap"` // default: 2
	MaxValidate    int  `yaml:"max_validate"`  // default: 30
	MaxExtract     int  `yaml:"max_extract"`   // default: 15
	Concurrency    int  `yaml:"concurrency"`   // default: 5
	SkipValidation bool `yaml:"skip_validation"`
	SkipExtraction bool `yaml:"skip_extraction"`
	// ExtractHTML also mines HTML pages, not just PDF and office documents.
	ExtractHTML bool `yaml:"extract_html"`
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		DiversityCap: diversity.DefaultCap,
		MaxValidate:  30,
		MaxExtract:   15,
		Concurrency:  5,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.DiversityCap <= 0 {
		c.DiversityCap = d.DiversityCap
	}
	if c.MaxValidate <= 0 {
		c.MaxValidate = d.MaxValidate
	}
	if c.MaxExtract <= 0 {
		c.MaxExtract = d.MaxExtract
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
}

// Pipeline runs discovery for one (company, product) at a time. It holds no
// per-run state and is safe to share.
type Pipeline struct {
	config     Config
	generator  *query.Generator
	collector  *collect.Collector
	scorer     *ranking.Scorer
	reranker   *ranking.Reranker
	detector   *geo.Detector
	analyzer   *content.Analyzer
	searcher   collect.Searcher
	validator  LinkValidator
	downloader Downloader
	extractor  TextExtractor
	evidence   EvidenceIndex
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures a Pipeline.
type Option func(*settings)

type settings struct {
	searcher   collect.Searcher
	validator  LinkValidator
	downloader Downloader
	extractor  TextExtractor
	evidence   EvidenceIndex
	classifier *blocklist.Classifier
	gazetteer  *geo.Gazetteer
	ranking    *ranking.RankingConfig
	analyzer   content.Options
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// WithSearcher sets the search collaborator. A run without one fails.
func WithSearcher(s collect.Searcher) Option {
	return func(o *settings) { o.searcher = s }
}

// WithValidator sets the link checker. Without one validation is disabled.
func WithValidator(v LinkValidator) Option {
	return func(o *settings) { o.validator = v }
}

// WithDownloader sets the document fetcher. Without one extraction is disabled.
func WithDownloader(d Downloader) Option {
	return func(o *settings) { o.downloader = d }
}

// WithExtractor sets the text extractor. Without one extraction is disabled.
func WithExtractor(e TextExtractor) Option {
	return func(o *settings) { o.extractor = e }
}

// WithEvidenceIndex stores extracted text for later full-text search.
func WithEvidenceIndex(idx EvidenceIndex) Option {
	return func(o *settings) { o.evidence = idx }
}

// WithClassifier replaces the built-in blocklist.
func WithClassifier(c *blocklist.Classifier) Option {
	return func(o *settings) { o.classifier = c }
}

// WithGazetteer replaces the built-in gazetteer.
func WithGazetteer(g *geo.Gazetteer) Option {
	return func(o *settings) { o.gazetteer = g }
}

// WithRankingConfig sets scoring and re-ranking weights.
func WithRankingConfig(c *ranking.RankingConfig) Option {
	return func(o *settings) { o.ranking = c }
}

// WithAnalyzerOptions tunes content analysis.
func WithAnalyzerOptions(a content.Options) Option {
	return func(o *settings) { o.analyzer = a }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *settings) { o.logger = l }
}

// New builds a Pipeline.
func New(cfg Config, opts ...Option) *Pipeline {
	cfg.ApplyDefaults()
	s := &settings{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	logger := utils.OrNop(s.logger)
	classifier := s.classifier
	if classifier == nil {
		classifier = blocklist.Default()
	}
	return &Pipeline{
		config:     cfg,
		generator:  query.NewGenerator(),
		collector:  collect.NewCollector(classifier, collect.WithLogger(logger)),
		scorer:     ranking.NewScorer(s.ranking, classifier),
		reranker:   ranking.NewReranker(s.ranking),
		detector:   geo.NewDetector(s.gazetteer),
		analyzer:   content.NewAnalyzer(s.analyzer),
		searcher:   s.searcher,
		validator:  s.validator,
		downloader: s.downloader,
		extractor:  s.extractor,
		evidence:   s.evidence,
		logger:     logger,
		now:        s.now,
		newID:      s.newID,
	}
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Run executes one discovery run. Invalid params and an unavailable search
// collaborator are the only errors; in the latter case the partial report is
// returned with the error. Every other failure is recorded in the report and
// on the affected result. Cancelling ctx stops new work and returns what was
// gathered.
func (p *Pipeline) Run(ctx context.Context, params models.RunParams) (*models.RunReport, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	queries, err := p.generator.Generate(params.Company, params.Product, params.Intent, params.QueryCount)
	if err != nil {
		return nil, err
	}

	report := &models.RunReport{
		ID:        p.newID(),
		Params:    params,
		StartedAt: p.now(),
		Queries:   queries,
	}
	log := p.logger.With(zap.String("run_id", report.ID))
	log.Info("run started",
		zap.String("company", params.Company),
		zap.String("product", params.Product),
		zap.String("intent", string(params.Intent)),
		zap.Int("queries", len(queries)))

	outcome, err := p.collector.Collect(ctx, queries, p.searcher)
	report.Stages = append(report.Stages, models.StageReport{
		Name:      models.StageCollection,
		Status:    outcome.Status,
		Processed: outcome.QueriesRun,
		Failed:    len(outcome.Failures),
	})
	report.Failures = append(report.Failures, outcome.Failures...)
	if err != nil {
		report.FinishedAt = p.now()
		log.Error("collection failed", zap.Error(err))
		return report, err
	}
	log.Info("collected",
		zap.Int("candidates", len(outcome.Candidates)),
		zap.Int("blocked", outcome.BlockedCount),
		zap.Int("duplicates", outcome.DuplicateCount))

	results := Score(p.scorer, p.detector, outcome.Candidates, params.Company, params.Product)
	report.Stages = append(report.Stages, models.StageReport{
		Name:      models.StageScoring,
		Status:    models.StageOK,
		Processed: len(results),
	})
	results = diversity.Enforce(results, p.config.DiversityCap)

	results, stage, failures := p.validate(ctx, results)
	report.Stages = append(report.Stages, stage)
	report.Failures = append(report.Failures, failures...)
	log.Info("validation finished",
		zap.String("status", string(stage.Status)),
		zap.Int("checked", stage.Processed),
		zap.Int("unreachable", stage.Failed))

	results, stage, failures = p.extract(ctx, results, report.ID, params, stage.Status != models.StageDisabled)
	report.Stages = append(report.Stages, stage)
	report.Failures = append(report.Failures, failures...)
	log.Info("extraction finished",
		zap.String("status", string(stage.Status)),
		zap.Int("extracted", stage.Processed-stage.Failed),
		zap.Int("failed", stage.Failed))

	results = Rerank(p.reranker, results)
	ranking.SortFinal(results)
	report.Results = diversity.Enforce(results, p.config.DiversityCap)
	report.FinishedAt = p.now()

	log.Info("run finished",
		zap.Int("results", len(report.Results)),
		zap.Int("confirmed", len(report.Confirmed())),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}
