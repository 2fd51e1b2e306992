package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shamburg82/J-VIBE/internal/config"
	"github.com/shamburg82/J-VIBE/internal/detect"
	"github.com/shamburg82/J-VIBE/internal/extract"
	"github.com/shamburg82/J-VIBE/internal/metrics"
	"github.com/shamburg82/J-VIBE/internal/pipeline"
)

// Server is the HTTP API server for tlfmeta.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	det          *detect.Detector
	claude       *extract.ClaudeClient // nil when the judge is disabled
	metrics      *metrics.Metrics
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, det *detect.Detector, claude *extract.ClaudeClient, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		det:          det,
		claude:       claude,
		metrics:      m,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/ingest/{jobID}/records", s.handleJobRecords)
		r.Get("/api/ingest/{jobID}/summary", s.handleJobSummary)
		r.Post("/api/classify", s.handleClassify)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"queue_depth":   s.orchestrator.QueueDepth(),
		"jobs":          s.orchestrator.JobCount(),
		"judge_enabled": s.orchestrator.JudgeEnabled(),
	})
}
