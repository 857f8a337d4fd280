package downloading

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stamerd/stosufy/src/features/auth"
)

// RegisterRoutes wires the download endpoints into the app.
func RegisterRoutes(app *fiber.App, s *Service, authService *auth.Service) {
	app.Post("/downloads", requestAssetHandler(s, authService))
	app.Get("/downloads/states", statesHandler(s))
}
