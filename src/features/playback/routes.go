package playback

import "github.com/gofiber/fiber/v2"

// RegisterRoutes wires the queue endpoints into the app.
func RegisterRoutes(app *fiber.App, s *Service) {
	app.Get("/queue", stateHandler(s))
	app.Get("/queue/current", currentSongHandler(s))
	app.Post("/queue", setQueueHandler(s))
	app.Post("/queue/toggle", togglePlayHandler(s))
	app.Post("/queue/stop", stopHandler(s))
	app.Post("/queue/next", skipForwardHandler(s))
	app.Post("/queue/previous", skipBackwardHandler(s))
	app.Post("/queue/shuffle", shuffleHandler(s))
}
