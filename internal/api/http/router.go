package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/login-service/internal/api/http/handlers"
	"github.com/spec-kit/login-service/internal/auth"
	"github.com/spec-kit/login-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	// Roles loads stored roles for RequireRole.
	Roles auth.UserLoader
	// OIDC is nil when no external provider is configured.
	OIDC *auth.OIDCLogin
	// Metrics is nil when the scrape endpoint is disabled.
	Metrics http.Handler
}

// RegisterRoutes wires HTTP routes. The authentication gate runs on every
// request; it never rejects, so public routes stay reachable.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	app.Use(cfg.AuthMiddleware.Handle)

	users := app.Group("/user")
	users.Post("/login", cfg.Users.Login)
	users.Put("/register", cfg.Users.Register)
	users.Post("/forgotPassword", cfg.Users.ForgotPassword)
	users.Post("/resetPassword", cfg.Users.ResetPassword)
	users.Get("/me", cfg.Users.Me)
	users.Get("/profile", auth.RequireAuthenticated(), cfg.Users.Profile)

	admin := app.Group("/admin", auth.RequireRole(cfg.Roles, domain.RoleAdmin))
	admin.Get("/users/:username", cfg.Users.UserProfile)

	if cfg.OIDC != nil {
		oauth := app.Group("/oauth2")
		oauth.Get("/login", cfg.OIDC.Login)
		oauth.Get("/callback", cfg.OIDC.Callback)
	}
}
