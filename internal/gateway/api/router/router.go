package router

import (
	"video2mp3_service/internal/gateway/api/handlers"
	"video2mp3_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册 gateway 相關的路由.
// Login and register proxy straight through, upload and download require a
// validated admin token.
func RegisterRoutes(app *fiber.App, h *handlers.GatewayHandler, validator middlewares.TokenValidator) {
	app.Get("/health", h.HealthCheck)

	app.Post("/login", h.Login)
	app.Post("/register", h.Register)

	app.Post("/upload", middlewares.ValidateToken(validator, true), h.Upload)
	app.Get("/download", middlewares.ValidateToken(validator, true), h.Download)
}
