package library

import "github.com/gofiber/fiber/v2"

// RegisterRoutes wires the library endpoints into the app.
func RegisterRoutes(app *fiber.App, s *Service) {
	app.Get("/library/songs", songsHandler(s))
	app.Get("/library/songs/:id", getHandler(s))
	app.Delete("/library/songs/:id", deleteHandler(s))
}
