// Package server exposes document extraction and its history over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
	"github.com/joseph-ayodele/docextract/internal/repository"
)

// DocumentProcessor is satisfied by *pipeline.Processor.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, filename string, data []byte) (pipeline.Outcome, error)
}

// Pinger reports storage health.
type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

type Config struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

type Server struct {
	cfg    Config
	proc   DocumentProcessor
	repo   repository.ExtractionRepository
	export *export.Service
	db     Pinger
	logger *slog.Logger
}

// New wires handlers. db may be nil when history is disabled.
func New(cfg Config, proc DocumentProcessor, repo repository.ExtractionRepository, exp *export.Service, db Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	if repo == nil {
		repo = repository.Discard{}
	}
	if exp == nil {
		exp = export.NewService(repo, logger)
	}
	return &Server{cfg: cfg, proc: proc, repo: repo, export: exp, db: db, logger: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/", s.root)
	r.Get("/healthz", s.healthz)
	r.Post("/parse_doc", s.parseDoc)

	r.Route("/extractions", func(r chi.Router) {
		r.Get("/", s.listExtractions)
		r.Get("/export", s.exportExtractions)
		r.Get("/{id}", s.getExtraction)
	})
	return r
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World!"})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "disabled"}
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context(), 2*time.Second); err != nil {
			s.logger.Warn("http.healthz.db_failed", "error", err)
			status["status"] = "degraded"
			status["database"] = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}
	writeJSON(w, http.StatusOK, status)
}
