package auth

import "github.com/gofiber/fiber/v2"

// RegisterRoutes wires the auth endpoints into the app.
func RegisterRoutes(app *fiber.App, s *Service) {
	app.Post("/auth/login", loginHandler(s))
	app.Post("/auth/refresh", refreshHandler(s))
	app.Get("/auth/status", statusHandler(s))
}
