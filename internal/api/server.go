package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/avana/avana/internal/config"
	"github.com/avana/avana/internal/extract"
	"github.com/avana/avana/internal/ipfilter"
	"github.com/avana/avana/internal/metrics"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *config.APIConfig
	defaults   extract.Options
	maxInput   int64
	filter     *ipfilter.Filter
	logger     *slog.Logger
	version    string
	startTime  time.Time
}

// ServerOptions contains options for creating a server
type ServerOptions struct {
	Config  *config.Config
	Logger  *slog.Logger
	Version string
}

// NewServer creates a new API server
func NewServer(opts ServerOptions) *Server {
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    &opts.Config.API,
		defaults:  opts.Config.ExtractOptions(),
		maxInput:  opts.Config.Extract.MaxInputBytes,
		filter:    ipfilter.New(opts.Config.API.AllowedIPs, opts.Config.API.TrustedProxies, opts.Logger),
		logger:    opts.Logger,
		version:   version,
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddr,
		Handler:        s.router,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
	}

	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.HTTPMiddleware)

	if len(s.config.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
			ExposedHeaders: []string{"X-Run-ID", "Content-Disposition"},
			MaxAge:         300,
		}))
	}

	// Health check (no auth required)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.filter.Middleware)
		r.Use(s.authMiddleware)

		r.Post("/extract", s.handleExtract)
		r.Post("/extract/csv", s.handleExtractCSV)
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting HTTP API server", "addr", s.config.ListenAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	return s.httpServer.Shutdown(ctx)
}
