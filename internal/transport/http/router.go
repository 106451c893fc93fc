package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hrm-gateway/internal/config"
	"github.com/hrm-gateway/internal/domain"
	"github.com/hrm-gateway/internal/transport/http/handler"
	appmiddleware "github.com/hrm-gateway/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the gateway router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second with a burst of 10 on write endpoints so one
	// client cannot hammer the upstream API through the gateway.
	writeRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	feedH := handler.NewFeedHandler(deps.Feed)
	notifH := handler.NewNotificationHandler(deps.Feed)
	employeeH := handler.NewEmployeeHandler(deps.Directory)
	holidayH := handler.NewHolidayHandler(deps.Directory)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/feed/open", feedH.Open)
			r.Post("/feed/close", feedH.Close)
			r.Get("/feed", feedH.Get)
			r.With(writeRL.Limit).Post("/feed/click", feedH.Click)

			r.With(writeRL.Limit).Put("/notifications/{id}/read", notifH.MarkRead)
			r.With(writeRL.Limit).Put("/notifications/mark-all-read", notifH.MarkAllRead)
			r.With(writeRL.Limit).Delete("/notifications/{id}", notifH.Delete)

			r.Get("/employees", employeeH.List)
			r.Get("/employees/{id}", employeeH.Get)
			r.Get("/holidays", holidayH.List)

			// Admin-like roles only
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin, domain.RoleHR))

				r.With(writeRL.Limit).Post("/notifications", notifH.Create)
				r.With(writeRL.Limit).Post("/employees", employeeH.Create)
				r.With(writeRL.Limit).Put("/employees/{id}", employeeH.Update)
				r.With(writeRL.Limit).Delete("/employees/{id}", employeeH.Delete)
			})
		})
	})

	return r
}
