package catalog

import "github.com/gofiber/fiber/v2"

// RegisterRoutes wires the catalog endpoints into the app.
func RegisterRoutes(app *fiber.App, c *Client) {
	app.Get("/catalog/search", searchHandler(c))
	app.Get("/catalog/beatmaps", lookupHandler(c))
}
