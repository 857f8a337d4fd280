package playlists

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

func listHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(s.All())
	}
}

func createHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.BodyParser(&body); err != nil || body.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}
		created, err := s.Create(c.Context(), body.Name)
		if err != nil {
			slog.Error("Failed to create playlist", "name", body.Name, "error", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func deleteHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.Delete(c.Context(), c.Params("id")); err != nil {
			slog.Error("Failed to delete playlist", "id", c.Params("id"), "error", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func addSongHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			SetID string `json:"song"`
		}
		if err := c.BodyParser(&body); err != nil || body.SetID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "song is required"})
		}
		if err := s.AddSong(c.Context(), c.Params("id"), body.SetID); err != nil {
			slog.Error("Failed to add song to playlist", "id", c.Params("id"), "error", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func removeSongHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.RemoveSong(c.Context(), c.Params("id"), c.Params("setId")); err != nil {
			slog.Error("Failed to remove song from playlist", "id", c.Params("id"), "error", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
