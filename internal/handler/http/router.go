package http

import (
	"log/slog"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/cmlabs-hris/teamflow-analytics/internal/handler/http/middleware"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(logger *slog.Logger, JWTService jwt.Service, analyticsHandler AnalyticsHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{supersededHeader},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1/analytics", func(r chi.Router) {
		// SSE authenticates with a stream token in the query string
		r.Get("/stream", analyticsHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Get("/dashboard", analyticsHandler.Dashboard)
			r.Get("/state", analyticsHandler.State)
			r.Get("/ranges", analyticsHandler.Ranges)
			r.Post("/stream-token", analyticsHandler.StreamToken)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(analytics.UserRoleAdmin, analytics.UserRoleManager))
				r.Post("/refresh", analyticsHandler.Refresh)
			})
		})
	})
	return r
}
