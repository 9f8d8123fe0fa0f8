package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if h.health != nil {
		r.Get("/health", h.health.HandleHealth)
		r.Get("/health/live", h.health.HandleLiveness)
		r.Get("/health/ready", h.health.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", h.AnalyticsSummary)
			r.Get("/clusters", h.Clusters)
			r.Get("/regions", h.Regions)
			r.Get("/correlations", h.Correlations)
			r.Get("/top-performers", h.TopPerformers)
			r.Get("/underperformers", h.Underperformers)
			r.Get("/by-attribute/{attribute}", h.ByAttribute)
			r.Get("/time-patterns", h.TimePatterns)
		})

		r.Route("/planning", func(r chi.Router) {
			r.Post("/recommendations", h.Recommendations)
			r.Post("/plan", h.Plan)
			r.Post("/predict", h.Predict)
			r.Post("/compare", h.Compare)
		})
	})

	return r
}
