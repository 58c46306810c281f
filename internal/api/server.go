// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/altalpha/lab/internal/api/handler/api"
	"github.com/altalpha/lab/internal/api/job"
	"github.com/altalpha/lab/internal/api/middleware"
	"github.com/altalpha/lab/internal/api/response"
	"github.com/altalpha/lab/internal/config"
	"github.com/altalpha/lab/internal/metrics"
	"github.com/altalpha/lab/internal/research"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP API for the research pipeline.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	jobStore   *job.Store
	version    string
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Config, svc *research.Service, reg *metrics.Registry, logger *zap.Logger, version string) *Server {
	jobStore := job.NewStore(cfg.Server.MaxJobs,
		time.Duration(cfg.Server.JobTTLHours)*time.Hour)

	s := &Server{
		logger:   logger,
		jobStore: jobStore,
		version:  version,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux, cfg, svc, reg)

	var handler http.Handler = mux
	if reg != nil {
		handler = metrics.HTTPMiddleware(reg)(handler)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(mux *http.ServeMux, cfg *config.Config, svc *research.Service, reg *metrics.Registry) {
	data := apihandler.NewDataHandler(svc)
	strategy := apihandler.NewStrategyHandler(svc, cfg.Strategy)
	optimize := apihandler.NewOptimizeHandler(s.jobStore, svc, cfg)
	simulate := apihandler.NewSimulateHandler(svc, cfg.Strategy)
	report := apihandler.NewReportHandler(svc, cfg.Strategy)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/price-data", data.PriceData)
	api.HandleFunc("GET /api/sentiment", data.Sentiment)
	api.HandleFunc("GET /api/features", data.Features)
	api.HandleFunc("POST /api/strategy", strategy.Signals)
	api.HandleFunc("POST /api/backtest", strategy.Backtest)
	api.HandleFunc("POST /api/metrics", strategy.Metrics)
	api.HandleFunc("POST /api/optimize", optimize.Create)
	api.HandleFunc("GET /api/optimize/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		optimize.GetStatus(w, r, r.PathValue("id"))
	})
	api.HandleFunc("POST /api/simulate", simulate.Run)
	api.HandleFunc("POST /api/report", report.Generate)

	mux.Handle("/api/", middleware.APIKeyAuth(cfg.Server.APIKey)(api))

	// Health and metrics stay outside API key auth.
	mux.HandleFunc("GET /api/health", s.handleHealth)
	if reg != nil && cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
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

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"jobs":    s.jobStore.Count(),
	})
}
