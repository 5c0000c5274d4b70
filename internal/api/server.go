package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/headfix/internal/config"
	"github.com/dgallion1/headfix/internal/heal"
	"github.com/dgallion1/headfix/internal/metrics"
	"github.com/dgallion1/headfix/internal/pipeline"
	"github.com/dgallion1/headfix/internal/stats"
	"github.com/dgallion1/headfix/internal/verbosity"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for headfix.
type Server struct {
	router       chi.Router
	healer       *heal.Healer
	orchestrator *pipeline.Orchestrator
	verbosity    *verbosity.Controller
	metrics      *metrics.Metrics
	stats        *stats.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. metrics and stats may be nil.
func NewServer(healer *heal.Healer, orch *pipeline.Orchestrator, v *verbosity.Controller, m *metrics.Metrics, st *stats.Stats, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		healer:       healer,
		orchestrator: orch,
		verbosity:    v,
		metrics:      m,
		stats:        st,
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
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/heal", s.handleHeal)
		r.Post("/api/heal/batch", s.handleBatchHeal)
		r.Get("/api/heal/{jobID}/status", s.handleHealStatus)
		r.Get("/api/heal/{jobID}/result", s.handleHealResult)

		r.Get("/api/logging", s.handleLoggingStatus)
		r.Put("/api/logging/enable", s.handleLoggingEnable)
		r.Put("/api/logging/disable", s.handleLoggingDisable)
		r.Delete("/api/logging", s.handleLoggingClear)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
