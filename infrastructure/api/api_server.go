package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/stylo-app/stylo"
	apimiddleware "github.com/stylo-app/stylo/infrastructure/api/middleware"
	v2 "github.com/stylo-app/stylo/infrastructure/api/v2"
)

// Config carries the transport-edge settings: authentication, CORS,
// and the per-IP rate budgets.
type Config struct {
	// AuthSecret is the HS256 secret bearer tokens must be signed with.
	AuthSecret string

	// CORSOrigins lists allowed origins; empty disables CORS headers.
	CORSOrigins []string

	// SuggestPerMinute budgets the suggestion endpoint per IP.
	SuggestPerMinute int

	// MutatePerMinute budgets catalog and outfit mutations per IP.
	MutatePerMinute int
}

// APIServer provides the HTTP API backed by a stylo Client.
type APIServer struct {
	client       *stylo.Client
	config       Config
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given stylo Client.
// Every /v2 route requires a bearer token whose subject is the owner id.
func NewAPIServer(client *stylo.Client, config Config) *APIServer {
	return &APIServer{
		client: client,
		config: config,
		logger: client.Logger().Slog(),
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call
// MountRoutes(). If not called, ListenAndServe creates a default router
// with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

// mountRoutes wires up health probes and the authenticated /v2 routes.
func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	// Probes stay outside auth and rate limiting, and never go beyond a
	// single-row database ping.
	router.Get("/health", a.health)
	router.Get("/ready", a.ready)

	suggestionsRouter := v2.NewSuggestionsRouter(c)
	itemsRouter := v2.NewItemsRouter(c)
	outfitsRouter := v2.NewOutfitsRouter(c)
	adminRouter := v2.NewAdminRouter(c)

	suggestLimiter := apimiddleware.NewRateLimiter(a.config.SuggestPerMinute, a.logger)
	mutateLimiter := apimiddleware.NewRateLimiter(a.config.MutatePerMinute, a.logger)

	router.Route("/v2", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		if len(a.config.CORSOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   a.config.CORSOrigins,
				AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Authorization", "Content-Type"},
				ExposedHeaders:   []string{"X-Total-Count", "Retry-After"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
		}

		r.Use(apimiddleware.Auth(a.config.AuthSecret, a.logger))

		r.Group(func(r chi.Router) {
			r.Use(suggestLimiter.Middleware)
			r.Mount("/suggestions", suggestionsRouter.Routes())
		})

		r.Group(func(r chi.Router) {
			r.Use(mutateLimiter.Middleware)
			r.Mount("/items", itemsRouter.Routes())
			r.Mount("/outfits", outfitsRouter.Routes())
			r.Mount("/admin", adminRouter.Routes())
		})
	})
}

// health reports liveness; 200 as soon as the process serves HTTP.
func (a *APIServer) health(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ready reports readiness; 503 until migrations and model warmup ran.
func (a *APIServer) ready(w http.ResponseWriter, r *http.Request) {
	if !a.client.Ready() {
		apimiddleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	if err := a.client.Ping(r.Context()); err != nil {
		apimiddleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server

	if a.routerCalled && a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
