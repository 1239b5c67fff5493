// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/newthinker/straddle/internal/api/handler"
	"github.com/newthinker/straddle/internal/api/job"
	"github.com/newthinker/straddle/internal/api/middleware"
	"github.com/newthinker/straddle/internal/metrics"
)

// Server is the HTTP server exposing the analysis API.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration.
type Config struct {
	Host             string
	Port             int
	APIKey           string
	MetricsPath      string
	DefaultLookback  int
	DefaultLookahead int
	JobTTL           time.Duration
	MaxJobs          int
}

// Deps carries the server's collaborators. Snapshots and Metrics are
// optional.
type Deps struct {
	Runner    handler.Runner
	Store     handler.PerformanceStore
	Snapshots handler.SnapshotReader
	Metrics   *metrics.Registry
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Deps, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	var root http.Handler = mux
	if deps.Metrics != nil {
		root = metrics.HTTPMiddleware(deps.Metrics)(root)
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)
	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, deps Deps) {
	jobStore := job.NewStore(cfg.MaxJobs, cfg.JobTTL)
	auth := middleware.APIKeyAuth(cfg.APIKey)

	analysis := handler.NewAnalysisHandler(jobStore, deps.Runner,
		cfg.DefaultLookback, cfg.DefaultLookahead, deps.Metrics, s.logger)
	performance := handler.NewPerformanceHandler(deps.Store)

	protected := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	s.mux.Handle("POST /api/v1/analyses", protected(analysis.Create))
	s.mux.Handle("GET /api/v1/jobs/{id}", protected(analysis.GetStatus))
	s.mux.Handle("GET /api/v1/performance", protected(performance.Get))

	if deps.Snapshots != nil {
		snapshots := handler.NewSnapshotHandler(deps.Snapshots)
		s.mux.Handle("GET /api/v1/snapshots/{ticker}", protected(snapshots.List))
		s.mux.Handle("GET /api/v1/snapshots/{ticker}/{date}", protected(snapshots.Get))
	}

	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the root handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
