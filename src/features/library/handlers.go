package library

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

func songsHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(s.Songs())
	}
}

func getHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, ok := s.Get(c.Params("id"))
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "set not found"})
		}
		return c.JSON(set)
	}
}

func deleteHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.Delete(c.Context(), c.Params("id")); err != nil {
			slog.Error("Failed to delete set", "setID", c.Params("id"), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
