// Package server provides the HTTP surface: the analyze API, the static site,
// read-only admin pages, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/jonathan/jobprep/internal/fetch"
	"github.com/jonathan/jobprep/internal/logger"
	"github.com/jonathan/jobprep/internal/metrics"
	"github.com/jonathan/jobprep/internal/store"
	"github.com/jonathan/jobprep/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetcher recovers job text from a URL.
type Fetcher interface {
	FetchJobText(ctx context.Context, rawURL string) (*fetch.JobText, error)
}

// Analyzer turns job text into an interview analysis.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*types.Analysis, error)
}

// Config holds server configuration
type Config struct {
	Port      int
	PublicDir string
	// ShutdownTimeout bounds graceful shutdown. Defaults to 30s.
	ShutdownTimeout time.Duration
}

// Deps are the collaborators a Server needs. Logger, Metrics and Gatherer may be nil.
type Deps struct {
	Fetcher  Fetcher
	Analyzer Analyzer
	Store    store.Store
	Logger   logger.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	cfg        Config

	fetcher   Fetcher
	analyzer  Analyzer
	store     store.Store
	log       logger.Logger
	metrics   *metrics.Metrics
	templates *template.Template
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Fetcher == nil || deps.Analyzer == nil || deps.Store == nil {
		return nil, errors.New("server requires a fetcher, an analyzer and a store")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		fetcher:   deps.Fetcher,
		analyzer:  deps.Analyzer,
		store:     deps.Store,
		log:       deps.Logger,
		metrics:   deps.Metrics,
		templates: tmpl,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /health", s.handleHealth)
	if deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Admin pages
	mux.HandleFunc("GET /admin", s.handleAdmin)
	mux.HandleFunc("GET /admin/analytics", s.handleAdminAnalytics)
	mux.HandleFunc("GET /admin/links", s.handleAdminLinks)

	// Static site
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /index.html", s.handleIndex)
	mux.HandleFunc("GET /", s.handleStatic)

	s.handler = s.withRequestID(s.withLogging(s.withCORS(s.withMetrics(mux))))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // fetch fallbacks plus generation
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server starting", logger.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("Server stopped")
	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Error encoding JSON response", logger.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
