package api

import (
	"encoding/json"
	"net/http"

	"github.com/synaptiq/synaptiq/admin-plane/internal/api/handlers"
	"github.com/synaptiq/synaptiq/admin-plane/internal/api/middleware"
	"github.com/synaptiq/synaptiq/admin-plane/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.ActorExtractor)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-Id", "X-Service-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.NewServiceKeyAuth().Middleware)

	// Health & info
	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler(cfg))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Tenants
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Route("/{tenantId}", func(r chi.Router) {
				r.Get("/", h.GetTenant)
				r.Put("/", h.UpdateTenant)
				r.Post("/activate", h.ActivateTenant)
				r.Post("/deactivate", h.DeactivateTenant)
				r.Put("/master-integration", h.SetMasterIntegration)
				r.Get("/channels", h.ListTenantChannels)
				r.Get("/stats", h.GetTenantStats)

				// Per-tenant prompt overrides
				r.Route("/prompts/{category}", func(r chi.Router) {
					r.Get("/", h.GetTenantPrompt)
					r.Put("/", h.PutTenantPrompt)
				})
			})
		})

		// Neurocores
		r.Route("/neurocores", func(r chi.Router) {
			r.Get("/", h.ListNeurocores)
			r.Post("/edit-session", h.OpenEditSession)
			r.Route("/{neurocoreId}", func(r chi.Router) {
				r.Get("/", h.GetNeurocore)
				r.Delete("/", h.DeleteNeurocore)
				r.Post("/activate", h.ActivateNeurocore)
				r.Post("/deactivate", h.DeactivateNeurocore)
				r.Post("/edit-session", h.OpenNeurocoreEditSession)
			})
		})

		// Draft edit sessions
		r.Route("/edit-sessions/{sessionId}", func(r chi.Router) {
			r.Get("/agents", h.ListDraftAgents)
			r.Post("/agents", h.AddDraftAgent)
			r.Put("/agents/{index}", h.EditDraftAgent)
			r.Delete("/agents/{index}", h.RemoveDraftAgent)
			r.Post("/save", h.SaveNeurocore)
			r.Delete("/", h.CancelEditSession)
		})

		// Agent templates
		r.Route("/agent-templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)
			r.Get("/active", h.ListActiveTemplates)
			r.Route("/{templateId}", func(r chi.Router) {
				r.Get("/", h.GetTemplate)
				r.Put("/", h.UpdateTemplate)
				r.Post("/activate", h.ActivateTemplate)
				r.Post("/deactivate", h.DeactivateTemplate)
			})
		})

		// Channels
		r.Route("/channels", func(r chi.Router) {
			r.Post("/", h.CreateChannel)
			r.Route("/{channelId}", func(r chi.Router) {
				r.Get("/", h.GetChannel)
				r.Put("/", h.UpdateChannel)
				r.Delete("/", h.DeleteChannel)
			})
		})

		// Reference data
		r.Get("/providers", h.ListProviders)
		r.Get("/niches", h.ListNiches)

		// Dashboard console views
		r.Route("/console/{view}", func(r chi.Router) {
			r.Get("/", h.GetConsoleView)
			r.Post("/refresh", h.RefreshConsoleView)
			r.Put("/search", h.SearchConsoleView)
		})

		// Event stream
		r.Get("/events", h.StreamEvents)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "synaptiq-admin-plane",
	})
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": "synaptiq-admin-plane",
		})
	}
}
