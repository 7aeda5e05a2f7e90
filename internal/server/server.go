// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/askql/internal/observe"
	"github.com/leapstack-labs/askql/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

// DefaultPort is used when Config.Port is zero.
const DefaultPort = 3000

// Server is the HTTP API server.
type Server struct {
	service    *pipeline.Service
	metrics    *observe.Metrics
	port       int
	corsOrigin string
	logger     *slog.Logger
}

// Config holds configuration for the HTTP server.
type Config struct {
	Service    *pipeline.Service
	Metrics    *observe.Metrics
	Port       int
	CORSOrigin string
	Logger     *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return &Server{
		service:    cfg.Service,
		metrics:    cfg.Metrics,
		port:       port,
		corsOrigin: origin,
		logger:     logger,
	}
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		propagateRequestID,
		observeRequests(s.metrics),
		allowOrigin(s.corsOrigin),
	)
	SetupRoutes(r, NewHandlers(s.service, s.logger), s.metrics, s.corsOrigin)
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting API server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
