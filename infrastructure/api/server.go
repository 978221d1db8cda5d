package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Connection timeouts for the outer http.Server. Per-request timeouts
// are applied per route group when routes are mounted.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 2 * time.Minute
)

// Server is the outer HTTP listener: a chi router plus the http.Server
// lifecycle around it. The http.Server is built in NewServer so that
// Shutdown is safe to call concurrently with Start.
type Server struct {
	router chi.Router
	http   *http.Server
	logger *slog.Logger
}

// NewServer creates a Server listening on addr once started. Request id,
// real-IP resolution, and panic recovery apply to every route.
func NewServer(addr string, logger *slog.Logger) Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
	)

	return Server{
		router: router,
		logger: logger,
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Router returns the chi router for registering routes.
func (s Server) Router() chi.Router { return s.router }

// Addr returns the listen address.
func (s Server) Addr() string { return s.http.Addr }

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", s.http.Addr, err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server draining")
	return s.http.Shutdown(ctx)
}
