// Package server implements the pull endpoint Prometheus scrapes.
package server

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dwsmith1983/guildmetrics/internal/metrics"
)

// Server exposes the registry over HTTP.
type Server struct {
	registry *metrics.Registry
	logger   *slog.Logger
	router   chi.Router
	addr     string
	srv      *http.Server
}

// New creates a new HTTP server listening on addr once started.
func New(addr string, reg *metrics.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry: reg,
		logger:   logger,
		addr:     addr,
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	s.router = r
	s.registerRoutes(r)

	s.srv = &http.Server{
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     log.New(slogWriter{logger}, "", 0),
	}
	return s
}

// Listen binds the listening socket. Scrapes are accepted as soon as Serve
// runs, before any metric has been populated.
func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.addr)
}

// Serve serves HTTP on ln until Stop is called. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("exporter listening", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Write(p []byte) (int, error) {
	w.logger.Error("http server", "message", string(p))
	return len(p), nil
}
