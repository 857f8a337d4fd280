package catalog

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func searchHandler(c *Client) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		query := ctx.Query("q")
		cursor := ctx.Query("cursor")
		page, err := c.Search(ctx.Context(), query, cursor)
		if err != nil {
			slog.Error("Catalog search failed", "query", query, "error", err)
			return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.JSON(page)
	}
}

func lookupHandler(c *Client) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		raw := ctx.Query("ids")
		if raw == "" {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ids query parameter is required"})
		}
		ids := strings.Split(raw, ",")
		variants, err := c.Lookup(ctx.Context(), ids)
		if err != nil {
			slog.Error("Catalog lookup failed", "count", len(ids), "error", err)
			return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.JSON(fiber.Map{"beatmaps": variants})
	}
}
