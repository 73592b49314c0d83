package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UserHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/send-verification-code", cfg.Auth.SendVerificationCode)
	authGroup.Post("/verify-email", cfg.Auth.VerifyEmail)

	userGroup := app.Group("/user")
	userGroup.Post("/request-password-reset", cfg.Users.RequestPasswordReset)
	userGroup.Post("/verify-password-reset", cfg.Users.VerifyPasswordReset)
	userGroup.Patch("/password-reset", cfg.Users.ResetPassword)

	userGroup.Get("/", cfg.AuthMiddleware.Handle, cfg.Users.List)
	userGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)
	userGroup.Get("/:id", cfg.AuthMiddleware.Handle, cfg.Users.Get)
}
