// Package server provides the HTTP API for contract-finder.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/AlosedAG/contract-finder/internal/config"
	"github.com/AlosedAG/contract-finder/internal/evidence"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/internal/storage"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

// Runner executes a discovery run.
type Runner interface {
	Run(ctx context.Context, params models.RunParams) (*models.RunReport, error)
}

// EvidenceSearcher queries the evidence index.
type EvidenceSearcher interface {
	Search(ctx context.Context, q evidence.Query) ([]models.EvidenceHit, error)
	Count() (uint64, error)
}

// Server is the HTTP server for the contract-finder API.
type Server struct {
	runner   Runner
	store    storage.Store
	evidence EvidenceSearcher
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. evidence may be nil.
func NewServer(
	runner Runner,
	store storage.Store,
	evidence EvidenceSearcher,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if cfg == nil {
		cfg = &config.Default().Server
	}
	return &Server{
		runner:   runner,
		store:    store,
		evidence: evidence,
		config:   cfg,
		logger:   utils.OrNop(logger),
	}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Runs may take minutes; they carry their own deadline.
	r.Post("/api/v1/runs", s.handleStartRun)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
		r.Get("/api/v1/runs", s.handleListRuns)
		r.Get("/api/v1/runs/{id}", s.handleGetRun)
		r.Delete("/api/v1/runs/{id}", s.handleDeleteRun)
		r.Get("/api/v1/runs/{id}/export", s.handleExportRun)
		r.Get("/api/v1/results", s.handleTopResults)
		r.Get("/api/v1/evidence", s.handleSearchEvidence)
		r.Get("/api/v1/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
