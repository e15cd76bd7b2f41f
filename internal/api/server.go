package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"marketpulse/internal/api/health"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Port        int
	ServiceName string
	Version     string
	RateLimit   float64 // requests per second across the API surface
	RateBurst   int
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// newAPIMux registers the REST routes.
func newAPIMux(handlers *Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/assets", handlers.ListAssets)
	mux.HandleFunc("GET /api/v1/assets/{ticker}", handlers.GetAsset)
	mux.HandleFunc("GET /api/v1/assets/{ticker}/summary", handlers.GetSummary)
	mux.HandleFunc("GET /api/v1/assets/{ticker}/risk", handlers.GetRisk)
	mux.HandleFunc("GET /api/v1/assets/{ticker}/indicators", handlers.GetIndicators)
	mux.HandleFunc("GET /api/v1/assets/{ticker}/sentiment-buckets", handlers.GetSentimentBuckets)
	mux.HandleFunc("GET /api/v1/assets/{ticker}/forecast-input", handlers.GetForecastInput)
	mux.HandleFunc("GET /api/v1/opportunities", handlers.GetOpportunities)
	mux.HandleFunc("POST /api/v1/pipeline/run", handlers.RunPipeline)
	mux.HandleFunc("GET /api/v1/pipeline/runs/latest", handlers.GetLatestRun)
	return mux
}

// NewServer creates and configures HTTP server with all routes
func NewServer(cfg ServerConfig, handlers *Handlers, healthHandler *health.Handler, log *logger.Logger) *Server {
	mux := http.NewServeMux()

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("/health", healthHandler.HandleHealth)
	mux.HandleFunc("/ready", healthHandler.HandleReadiness)
	mux.HandleFunc("/live", healthHandler.HandleLiveness)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	// REST API, rate limited as a whole
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	mux.Handle("/api/v1/", observe(log, rateLimit(limiter, newAPIMux(handlers))))

	// Root endpoint (service info)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":"%s","version":"%s","status":"running"}`,
			cfg.ServiceName, cfg.Version)
	})

	port := 8080
	if cfg.Port > 0 {
		port = cfg.Port
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // a synchronous pipeline run is slow
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}
