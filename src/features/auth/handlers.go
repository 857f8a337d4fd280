package auth

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

func loginHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Code       string `json:"code"`
			SessionKey string `json:"sessionKey"`
		}
		if err := c.BodyParser(&body); err != nil || body.Code == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code is required"})
		}
		if err := s.Login(c.Context(), body.Code, body.SessionKey); err != nil {
			slog.Error("Login failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func refreshHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.Refresh(c.Context()); err != nil {
			slog.Error("Token refresh failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func statusHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		creds := s.Credentials()
		return c.JSON(fiber.Map{
			"authenticated": creds.AccessToken != "",
			"hasSession":    creds.SessionKey != "",
		})
	}
}
