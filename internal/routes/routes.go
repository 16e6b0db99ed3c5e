package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/auth"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/handlers"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	tokenHandler *handlers.TokenHandler,
	userHandler *handlers.UserHandler,
	validator *auth.TokenValidator,
) {
	// Rate limiting config for credential-bearing endpoints
	rateLimitConfig := middleware.DefaultGrantRateLimit()

	// Token endpoint - public, rate limited
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/oauth/token", tokenHandler.Token)

	router.Route("/api/accounts", func(r chi.Router) {
		// Public routes - no authentication required
		r.Post("/create", userHandler.Create)
		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/ForgotPassword", userHandler.ForgotPassword)
		r.Post("/ResetPassword", userHandler.ResetPassword)

		// Protected routes - authentication required
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(validator))

			// Any authenticated user
			r.Get("/users", userHandler.List)
			r.Get("/user/{id}", userHandler.GetByID)
			r.Get("/user/name/{username}", userHandler.GetByUsername)
			r.Post("/ChangePassword", userHandler.ChangePassword)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole("Admin"))
				r.Delete("/user/{id}", userHandler.Delete)
				r.Put("/user/{id}/roles", userHandler.AssignRoles)
			})
		})
	})
}
