package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AlosedAG/contract-finder/internal/classify"
	"github.com/AlosedAG/contract-finder/internal/extract"
	"github.com/AlosedAG/contract-finder/internal/fetch"
	"github.com/AlosedAG/contract-finder/internal/fileid"
	"github.com/AlosedAG/contract-finder/internal/geo"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/internal/ranking"
)

// Score turns candidates into results ordered by relevance, each carrying its
// detected location and hinted classification. Blocked candidates are dropped.
func Score(scorer *ranking.Scorer, detector *geo.Detector, candidates []models.CandidateResult, company, product string) []models.FinalResult {
	scored := scorer.ScoreAll(candidates, company, product)
	out := make([]models.FinalResult, len(scored))
	for i, s := range scored {
		out[i] = models.FinalResult{
			ScoredResult:     s,
			Location:         detector.Detect(s.CandidateResult, company, product),
			Classification:   s.HintedType,
			FinalScore:       s.RelevanceScore,
			ExtractionStatus: models.ExtractionNotAttempted,
		}
	}
	return out
}

// Rerank returns a copy of results with final scores computed from content.
func Rerank(rr *ranking.Reranker, results []models.FinalResult) []models.FinalResult {
	out := make([]models.FinalResult, len(results))
	for i, r := range results {
		out[i] = rr.Rerank(r)
	}
	return out
}

// FetchURL is the address used to reach a result.
func FetchURL(r models.FinalResult) string {
	if r.URL != "" {
		return r.URL
	}
	return r.NormalizedURL
}

func (p *Pipeline) validate(ctx context.Context, in []models.FinalResult) ([]models.FinalResult, models.StageReport, []models.FailureRecord) {
	stage := models.StageReport{Name: models.StageValidation, Status: models.StageOK}
	out := make([]models.FinalResult, len(in))
	copy(out, in)

	if p.config.SkipValidation || p.validator == nil {
		stage.Status = models.StageDisabled
		return out, stage, nil
	}

	n := min(len(out), p.config.MaxValidate)
	urls := make([]string, n)
	for i := range urls {
		urls[i] = FetchURL(out[i])
	}
	checks := p.validateAll(ctx, urls)

	var failures []models.FailureRecord
	for i, v := range checks {
		out[i].Validation = v
		out[i].Validated = v.Reachable
		if v.Reason == "cancelled" {
			continue
		}
		stage.Processed++
		if !v.Reachable {
			stage.Failed++
			failures = append(failures, failureRecord(models.StageValidation, urls[i],
				fmt.Errorf("%w: %s", models.ErrValidationFailure, v.Reason)))
		}
	}
	for i := n; i < len(out); i++ {
		out[i].Validation = models.Validation{Reason: "not checked"}
	}

	switch {
	case ctx.Err() != nil:
		stage.Status = models.StageCancelled
	case stage.Failed > 0:
		stage.Status = models.StagePartial
	}
	return out, stage, failures
}

func (p *Pipeline) validateAll(ctx context.Context, urls []string) []models.Validation {
	if bv, ok := p.validator.(batchValidator); ok {
		return bv.ValidateAll(ctx, urls)
	}
	out := make([]models.Validation, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)
	for i, u := range urls {
		if gctx.Err() != nil {
			out[i] = models.Validation{Reason: "cancelled"}
			continue
		}
		g.Go(func() error {
			out[i] = p.validator.Validate(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// evidenceExts are the extensions worth downloading without a content type.
var evidenceExts = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".odt": true, ".rtf": true,
}

var evidenceTypes = []string{"pdf", "msword", "officedocument", "opendocument", "ms-excel", "rtf"}

// IsEvidence reports whether a result looks like a downloadable document:
// its URL path has a document extension, or validation saw a document type.
func IsEvidence(r models.FinalResult, includeHTML bool) bool {
	ext := ""
	if u, err := url.Parse(FetchURL(r)); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	if evidenceExts[ext] {
		return true
	}
	ct := strings.ToLower(r.Validation.ContentType)
	for _, t := range evidenceTypes {
		if strings.Contains(ct, t) {
			return true
		}
	}
	return includeHTML && fetch.IsDocument(ct, ext)
}

type extraction struct {
	result models.FinalResult
	err    error
}

func (p *Pipeline) extract(ctx context.Context, in []models.FinalResult, runID string, params models.RunParams, validated bool) ([]models.FinalResult, models.StageReport, []models.FailureRecord) {
	stage := models.StageReport{Name: models.StageExtraction, Status: models.StageOK}
	out := make([]models.FinalResult, len(in))
	copy(out, in)

	if p.config.SkipExtraction || p.downloader == nil || p.extractor == nil {
		stage.Status = models.StageDisabled
		for i := range out {
			out[i].ExtractionStatus = models.ExtractionDisabled
		}
		return out, stage, nil
	}

	var picked []int
	for i, r := range out {
		switch {
		case validated && !r.Validated:
			out[i].ExtractionStatus = models.ExtractionSkipped
		case !IsEvidence(r, p.config.ExtractHTML):
			out[i].ExtractionStatus = models.ExtractionSkipped
		case len(picked) < p.config.MaxExtract:
			picked = append(picked, i)
		}
	}
	if len(picked) == 0 {
		stage.Status = models.StageSkipped
		return out, stage, nil
	}

	slots := make([]*extraction, len(picked))
	var unavailable atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)
	for s, i := range picked {
		if gctx.Err() != nil || unavailable.Load() {
			break
		}
		g.Go(func() error {
			r, err := p.extractOne(gctx, out[i], runID, params)
			if errors.Is(err, extract.ErrUnavailable) {
				unavailable.Store(true)
			}
			slots[s] = &extraction{result: r, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if unavailable.Load() {
		p.logger.Warn("no text extractor available, extraction disabled for this run")
		for i := range out {
			if out[i].ExtractionStatus != models.ExtractionSkipped {
				out[i].ExtractionStatus = models.ExtractionDisabled
			}
		}
		stage.Status = models.StageDisabled
		return out, stage, nil
	}

	var failures []models.FailureRecord
	for s, i := range picked {
		x := slots[s]
		if x == nil {
			continue
		}
		out[i] = x.result
		stage.Processed++
		if x.err != nil && x.result.ExtractionStatus == models.ExtractionFailed {
			stage.Failed++
			failures = append(failures, failureRecord(models.StageExtraction, FetchURL(x.result),
				fmt.Errorf("%w: %v", models.ErrExtractionFailure, x.err)))
		}
	}

	switch {
	case ctx.Err() != nil:
		stage.Status = models.StageCancelled
	case stage.Failed > 0:
		stage.Status = models.StagePartial
	}
	return out, stage, failures
}

// extractOne downloads, extracts and analyzes one result. The returned result
// always carries an extraction status; err explains failed and no_text ones.
func (p *Pipeline) extractOne(ctx context.Context, r models.FinalResult, runID string, params models.RunParams) (models.FinalResult, error) {
	u := FetchURL(r)
	doc, err := p.downloader.Download(ctx, u)
	if err != nil {
		r.ExtractionStatus = models.ExtractionFailed
		r.ExtractionError = err.Error()
		p.logger.Debug("download failed", zap.String("url", u), zap.Error(err))
		return r, err
	}

	text, err := p.extractor.ExtractBytes(doc.Body, extract.DetectExt(doc.Body, doc.ContentType, doc.Ext))
	switch {
	case errors.Is(err, extract.ErrUnavailable):
		r.ExtractionStatus = models.ExtractionDisabled
		return r, err
	case errors.Is(err, extract.ErrNoText):
		r.ExtractionStatus = models.ExtractionNoText
		r.ExtractionError = err.Error()
		p.logger.Debug("no text layer", zap.String("url", u))
		return r, err
	case err != nil:
		r.ExtractionStatus = models.ExtractionFailed
		r.ExtractionError = err.Error()
		p.logger.Debug("extraction failed", zap.String("url", u), zap.Error(err))
		return r, err
	}

	r.ExtractionStatus = models.ExtractionExtracted
	r.Content = p.analyzer.Analyze(text, params.Company, params.Product)
	r.Classification = classify.FromText(text, r.HintedType)

	if p.evidence != nil {
		ev := models.EvidenceDocument{
			ID:             fileid.URLDocID(r.NormalizedURL),
			RunID:          runID,
			URL:            u,
			Title:          r.Title,
			Company:        params.Company,
			Product:        params.Product,
			Classification: r.Classification,
			Location:       locationLabel(r.Location),
			Source:         models.SourceRun,
			Content:        text,
			IndexedAt:      p.now(),
		}
		if err := p.evidence.Add(ctx, ev); err != nil {
			p.logger.Warn("evidence index failed", zap.String("url", u), zap.Error(err))
		}
	}
	return r, nil
}

func locationLabel(l models.LocationMatch) string {
	if !l.Known() {
		return ""
	}
	return l.String()
}

func failureRecord(stage, subject string, err error) models.FailureRecord {
	return models.FailureRecord{Stage: stage, Subject: subject, Error: err.Error()}
}
