package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AlosedAG/contract-finder/internal/evidence"
	"github.com/AlosedAG/contract-finder/internal/export"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/internal/storage"
)

const (
	defaultListLimit  = 20
	maxListLimit      = 200
	defaultQueryCount = 10
)

type runRequest struct {
	Company    string `json:"company"`
	Product    string `json:"product"`
	Intent     string `json:"intent"`
	QueryCount int    `json:"query_count"`
	// Save defaults to true.
	Save *bool `json:"save,omitempty"`
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.respondError(w, http.StatusNotImplemented, "runs not enabled")
		return
	}
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	intent, err := models.ParseIntent(req.Intent)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.QueryCount == 0 {
		req.QueryCount = defaultQueryCount
	}
	params := models.RunParams{Company: req.Company, Product: req.Product, Intent: intent, QueryCount: req.QueryCount}
	s.logger.Debug("run request",
		zap.String("company", params.Company),
		zap.String("product", params.Product),
		zap.Int("queries", params.QueryCount))

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RunTimeout)
	defer cancel()
	report, err := s.runner.Run(ctx, params)
	if report == nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		if err == nil {
			err = errors.New("run produced no report")
		}
		s.respondError(w, status, err.Error())
		return
	}

	save := req.Save == nil || *req.Save
	if save && s.store != nil {
		if serr := s.store.SaveRun(r.Context(), report); serr != nil {
			s.logger.Error("save run failed", zap.String("run_id", report.ID), zap.Error(serr))
			s.respondError(w, http.StatusInternalServerError, serr.Error())
			return
		}
	}
	if err != nil {
		s.logger.Warn("run failed", zap.String("run_id", report.ID), zap.Error(err))
		s.respondJSON(w, http.StatusBadGateway, map[string]interface{}{"error": err.Error(), "report": report})
		return
	}
	status := http.StatusOK
	if save && s.store != nil {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, report)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	offset := intParam(r, "offset", 0)
	limit := limitParam(r, defaultListLimit)
	runs, err := s.store.ListRuns(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []models.RunSummary{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs, "offset": offset, "limit": limit})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete run request", zap.String("id", id))
	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrRunNotFound) {
			s.respondError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("delete run failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleExportRun(w http.ResponseWriter, r *http.Request) {
	format := export.FormatJSON
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}
	report, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, report); err != nil {
		s.logger.Error("export failed", zap.String("run_id", report.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="run-%s.%s"`, report.ID, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*models.RunReport, bool) {
	id := chi.URLParam(r, "id")
	report, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrRunNotFound) {
			s.respondError(w, http.StatusNotFound, "run not found")
		} else {
			s.logger.Error("get run failed", zap.String("id", id), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return report, true
}

func (s *Server) handleTopResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.ResultFilter{
		Company:       q.Get("company"),
		ConfirmedOnly: boolParam(r, "confirmed"),
		Limit:         limitParam(r, defaultListLimit),
	}
	if v := q.Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid min_score")
			return
		}
		filter.MinScore = score
	}
	results, err := s.store.TopResults(r.Context(), filter)
	if err != nil {
		s.logger.Error("top results failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []storage.StoredResult{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleSearchEvidence(w http.ResponseWriter, r *http.Request) {
	if s.evidence == nil {
		s.respondError(w, http.StatusNotImplemented, "evidence index not enabled")
		return
	}
	q := r.URL.Query()
	query := evidence.Query{
		Text:           q.Get("q"),
		Company:        q.Get("company"),
		Classification: models.DocumentClassification(q.Get("classification")),
		Source:         q.Get("source"),
		Limit:          limitParam(r, evidence.DefaultLimit),
		Fuzzy:          boolParam(r, "fuzzy"),
	}
	s.logger.Debug("evidence search", zap.String("q", query.Text), zap.Bool("fuzzy", query.Fuzzy))
	hits, err := s.evidence.Search(r.Context(), query)
	if err != nil {
		s.logger.Error("evidence search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []models.EvidenceHit{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"query": query.Text, "hits": hits})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{}
	runs, err := s.store.CountRuns(r.Context())
	if err != nil {
		s.logger.Error("status: count runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp["runs"] = runs
	if s.evidence != nil {
		docs, err := s.evidence.Count()
		if err != nil {
			s.logger.Error("status: count evidence failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["evidence_documents"] = docs
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func intParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func limitParam(r *http.Request, def int) int {
	v := intParam(r, "limit", def)
	if v == 0 {
		v = def
	}
	return min(v, maxListLimit)
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
