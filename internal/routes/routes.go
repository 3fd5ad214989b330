package routes

import (
	"net/http"

	"github.com/BradenHooton/dscatalog/internal/auth"
	"github.com/BradenHooton/dscatalog/internal/handlers"
	"github.com/BradenHooton/dscatalog/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	Categories *handlers.CategoryHandler
	Products   *handlers.ProductHandler
	Health     http.HandlerFunc
	Metrics    http.Handler
}

// RateLimits holds the per-IP limits of the credential endpoints
type RateLimits struct {
	Login    middleware.RateLimitConfig
	Recovery middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, tokens auth.TokenValidator, limits RateLimits) {
	loginLimit := middleware.RateLimitByIP(limits.Login, middleware.DefaultAuthRateLimit())
	recoveryLimit := middleware.RateLimitByIP(limits.Recovery, middleware.DefaultRecoveryRateLimit())

	router.Get("/health", h.Health)
	if h.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// Public routes - no authentication required
	router.With(loginLimit).Post("/auth/login", h.Auth.Login)
	router.With(recoveryLimit).Post("/auth/recover-token", h.Auth.RecoverToken)
	router.With(recoveryLimit).Put("/auth/new-password", h.Auth.NewPassword)

	router.Get("/categories", h.Categories.ListCategories)
	router.Get("/categories/{id}", h.Categories.GetCategory)
	router.Get("/products", h.Products.ListProducts)
	router.Get("/products/{id}", h.Products.GetProduct)
	router.Post("/users", h.Users.CreateUser)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokens))

		r.Get("/auth/me", h.Auth.Me)

		r.Get("/users", h.Users.ListUsers)
		r.Get("/users/{id}", h.Users.GetUser)
		r.Put("/users/{id}", h.Users.UpdateUser)
		r.Delete("/users/{id}", h.Users.DeleteUser)

		r.Post("/categories", h.Categories.CreateCategory)
		r.Put("/categories/{id}", h.Categories.UpdateCategory)
		r.Delete("/categories/{id}", h.Categories.DeleteCategory)

		r.Post("/products", h.Products.CreateProduct)
		r.Put("/products/{id}", h.Products.UpdateProduct)
		r.Delete("/products/{id}", h.Products.DeleteProduct)
	})
}
