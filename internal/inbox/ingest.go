package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AlosedAG/contract-finder/internal/classify"
	"github.com/AlosedAG/contract-finder/internal/content"
	"github.com/AlosedAG/contract-finder/internal/extract"
	"github.com/AlosedAG/contract-finder/internal/fileid"
	"github.com/AlosedAG/contract-finder/internal/geo"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

// locationWindow bounds how much leading text is searched for a place name.
const locationWindow = 2000

// Config configures the inbox folders.
type Config struct {
	Directories []string      `yaml:"directories"`
	Extensions  []string      `yaml:"extensions"` // default: pdf docx xlsx xls txt html
	Recursive   *bool         `yaml:"recursive"`
	Debounce    time.Duration `yaml:"debounce"` // default: 400ms
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (c *Config) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// DefaultConfig returns the inbox defaults.
func DefaultConfig() Config {
	return Config{
		Extensions: []string{"pdf", "docx", "xlsx", "xls", "txt", "html"},
		Debounce:   defaultDebounce,
	}
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if len(c.Extensions) == 0 {
		c.Extensions = d.Extensions
	}
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
}

// Index is the evidence index the inbox writes to.
type Index interface {
	Add(ctx context.Context, doc models.EvidenceDocument) error
	Delete(ctx context.Context, id string) error
}

// Result reports one ingested file.
type Result struct {
	Path     string
	Document models.EvidenceDocument
	Content  models.ExtractedContent
	Err      error
}

// IngesterConfig configures an Ingester.
type IngesterConfig struct {
	// Company and Product drive the mention checks and keep their terms
	// from being read as place names.
	Company   string
	Product   string
	Analyzer  content.Options
	Gazetteer *geo.Gazetteer
	// OnResult is called after every ingest attempt, successful or not.
	OnResult func(Result)
	Logger   *zap.Logger
}

// Ingester extracts, analyzes and indexes documents dropped into the inbox.
type Ingester struct {
	extractor extract.TextExtractor
	index     Index
	analyzer  *content.Analyzer
	detector  *geo.Detector
	company   string
	product   string
	onResult  func(Result)
	now       func() time.Time
	logger    *zap.Logger
}

// NewIngester creates an Ingester. index may be nil, in which case documents
// are analyzed but not kept.
func NewIngester(extractor extract.TextExtractor, index Index, cfg IngesterConfig) *Ingester {
	g := cfg.Gazetteer
	if g == nil {
		g = geo.DefaultGazetteer()
	}
	return &Ingester{
		extractor: extractor,
		index:     index,
		analyzer:  content.NewAnalyzer(cfg.Analyzer),
		detector:  geo.NewDetector(g),
		company:   cfg.Company,
		product:   cfg.Product,
		onResult:  cfg.OnResult,
		now:       time.Now,
		logger:    utils.OrNop(cfg.Logger),
	}
}

// Ingest implements Handler.
func (in *Ingester) Ingest(ctx context.Context, path string) {
	res := in.Process(ctx, path)
	if res.Err != nil {
		in.logger.Warn("inbox ingest failed", zap.String("path", path), zap.Error(res.Err))
	} else {
		in.logger.Info("inbox document indexed",
			zap.String("path", res.Path),
			zap.String("classification", string(res.Document.Classification)),
			zap.Int("pricing_mentions", len(res.Content.PricingMentions)))
	}
	if in.onResult != nil {
		in.onResult(res)
	}
}

// Forget implements Handler by removing the file's evidence entry.
func (in *Ingester) Forget(ctx context.Context, path string) {
	if in.index == nil {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := in.index.Delete(ctx, fileid.FileDocID(abs)); err != nil {
		in.logger.Warn("inbox remove failed", zap.String("path", abs), zap.Error(err))
		return
	}
	in.logger.Debug("inbox document removed", zap.String("path", abs))
}

// Process extracts and analyzes one file and adds it to the index.
func (in *Ingester) Process(ctx context.Context, path string) Result {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	res := Result{Path: abs}
	if in.extractor == nil {
		res.Err = extract.ErrUnavailable
		return res
	}
	body, err := os.ReadFile(abs)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", abs, err)
		return res
	}
	ext := extract.DetectExt(body, "", strings.ToLower(filepath.Ext(abs)))
	text, err := in.extractor.ExtractBytes(body, ext)
	if err != nil {
		res.Err = fmt.Errorf("extract %s: %w", abs, err)
		return res
	}

	base := filepath.Base(abs)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	res.Content = in.analyzer.Analyze(text, in.company, in.product)
	class := classify.FromText(text, classify.FromHints(base, ""))

	snippet := utils.Truncate(text, locationWindow)
	loc := in.detector.Detect(models.CandidateResult{
		RawResult: models.RawResult{Title: title, Snippet: snippet},
	}, in.company, in.product)
	label := ""
	if loc.Known() {
		label = loc.String()
	}

	res.Document = models.EvidenceDocument{
		ID:             fileid.FileDocID(abs),
		Path:           abs,
		Title:          title,
		Company:        in.company,
		Product:        in.product,
		Classification: class,
		Location:       label,
		Source:         models.SourceInbox,
		Content:        text,
		IndexedAt:      in.now().UTC(),
	}
	if in.index != nil {
		if err := in.index.Add(ctx, res.Document); err != nil {
			res.Err = fmt.Errorf("index %s: %w", abs, err)
		}
	}
	return res
}
