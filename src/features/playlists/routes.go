package playlists

import "github.com/gofiber/fiber/v2"

// RegisterRoutes wires the playlist endpoints into the app.
func RegisterRoutes(app *fiber.App, s *Service) {
	app.Get("/playlists", listHandler(s))
	app.Post("/playlists", createHandler(s))
	app.Delete("/playlists/:id", deleteHandler(s))
	app.Post("/playlists/:id/songs", addSongHandler(s))
	app.Delete("/playlists/:id/songs/:setId", removeSongHandler(s))
}
