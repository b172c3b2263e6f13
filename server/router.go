// Package server assembles the HTTP router.
package server

import (
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/you/subwayviz/handlers"
	"github.com/you/subwayviz/repository"
)

// Deps are the collaborators the router wires into its handlers
type Deps struct {
	Fetcher        handlers.Fetcher
	Store          repository.HandoffRepository
	StoreName      string
	Templates      *template.Template
	HandoffTTL     time.Duration
	AllowedOrigins []string
}

// NewRouter builds the router for both screens, the JSON API and health checks
func NewRouter(deps Deps) http.Handler {
	gate := handlers.NewQueryGate()
	screens := handlers.NewScreenHandler(deps.Fetcher, deps.Store, gate, deps.Templates, deps.HandoffTTL)
	api := handlers.NewAPIHandler(deps.Fetcher, deps.Store, deps.HandoffTTL)
	health := handlers.NewHealthHandler(deps.Store, deps.StoreName, gate)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", health.GetHealth)
	r.Get("/healthz", health.Healthz)

	// Query screen
	r.Get("/", screens.Home)
	r.Post("/", screens.Query)

	// Visualization screen
	r.Get("/visualize", screens.Visualize)
	r.Get("/visualize/{handoffId}", screens.Visualize)
	r.Get("/visualize/{handoffId}/charts/{chart}", screens.Chart)

	r.Route("/api", func(r chi.Router) {
		r.Get("/arrivals", api.GetArrivals)
		r.Get("/handoffs/{handoffId}/views", api.GetViews)
	})

	return r
}
