package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairlawncommons/shabbat-api/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health
//	GET  /metrics
//	GET  /api/v1/shabbat?week=N
//	GET  /api/v1/shabbat/{date}
//	GET  /api/v1/notices/{date}?service=mincha|maariv|shacharit
//	GET  /api/v1/kiddush-levana/{date}
//	GET  /api/v1/minyan/status?limit=N
//	POST /api/v1/admin/minyan/refresh   (X-API-Key)
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		MetricsMiddleware(),
		CORSMiddleware(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	// ==========================================================================
	// Public routes
	// ==========================================================================
	r.Get("/health", handlers.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/shabbat", handlers.GetShabbat)
		r.Get("/shabbat/{date}", handlers.GetShabbatForDate)
		r.Get("/notices/{date}", handlers.GetNotices)
		r.Get("/kiddush-levana/{date}", handlers.GetKiddushLevana)
		r.Get("/minyan/status", handlers.GetMinyanStatus)

		// ======================================================================
		// Admin routes (API key)
		// ======================================================================
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg, logger))
			r.Post("/admin/minyan/refresh", handlers.RefreshMinyan)
		})
	})

	return r
}
