// Package router wires the HTTP surface: public availability reads and
// booking writes, plus JWT-protected schedule management.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/http/handlers"
	httpmiddleware "github.com/LPredmore/valorwell-first-ehr-sub007/internal/http/middleware"
	"github.com/LPredmore/valorwell-first-ehr-sub007/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger        *logging.Logger
	Availability  *handlers.AvailabilityHandler
	Appointments  *handlers.AppointmentsHandler
	ScheduleAdmin *handlers.ScheduleAdminHandler

	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimitRPS throttles public endpoints per client IP; 0 disables.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (availability reads, booking, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		if cfg.RateLimitRPS > 0 {
			public = public.With(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}
		public.Route("/api/v1", func(api chi.Router) {
			if cfg.Availability != nil {
				api.Route("/clinicians/{clinicianID}", func(r chi.Router) {
					r.Get("/availability", cfg.Availability.Intervals)
					r.Get("/slots", cfg.Availability.Slots)
				})
			}
			if cfg.Appointments != nil {
				api.Post("/appointments", cfg.Appointments.Book)
				api.Delete("/appointments/{appointmentID}", cfg.Appointments.Cancel)
			}
		})
	})

	// Schedule management routes (protected by JWT)
	if cfg.ScheduleAdmin != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Route("/clinicians/{clinicianID}", func(r chi.Router) {
				r.Post("/blocks", cfg.ScheduleAdmin.CreateBlock)
				r.Get("/blocks", cfg.ScheduleAdmin.ListBlocks)
				r.Patch("/blocks/{blockID}", cfg.ScheduleAdmin.EditBlock)
				r.Delete("/blocks/{blockID}", cfg.ScheduleAdmin.CancelBlock)
				r.Post("/exceptions", cfg.ScheduleAdmin.AddOneTime)
				r.Post("/time-blocks", cfg.ScheduleAdmin.CreateTimeBlock)
				r.Get("/settings", cfg.ScheduleAdmin.GetSettings)
				r.Put("/settings", cfg.ScheduleAdmin.PutSettings)
			})
			admin.Delete("/time-blocks/{timeBlockID}", cfg.ScheduleAdmin.DeleteTimeBlock)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
