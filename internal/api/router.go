package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/good-yellow-bee/alertrelay/internal/api/alerts"
	"github.com/good-yellow-bee/alertrelay/internal/api/chat"
	"github.com/good-yellow-bee/alertrelay/internal/api/middleware"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	alertHandler := alerts.NewHandler(s.store, s.mirror, s.dispatcher)
	chatHandler := chat.NewHandler(s.store, s.generator, s.config.DefaultSinceDays)

	// Alert ingestion, optionally rate limited per source IP.
	r.Group(func(r chi.Router) {
		if s.config.RateLimitPerIP > 0 {
			limiter := middleware.NewIPRateLimiter(
				rate.Limit(s.config.RateLimitPerIP),
				s.config.RateLimitPerIP,
			)
			r.Use(middleware.RateLimitByIP(limiter))
		}
		r.Post("/alert", alertHandler.Ingest)
	})

	// Chat command endpoint.
	r.Post("/chat", chatHandler.Command)

	// Health checks (public, no rate limit).
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	// Plain-text ping for load balancers and smoke tests.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("alertrelay - OK"))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, ErrMethodNotAllowed)
	})

	return r
}
