package downloading

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/stamerd/stosufy/src/features/auth"
	"github.com/stamerd/stosufy/src/music"
)

func requestAssetHandler(s *Service, authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Set       music.SetDescriptor `json:"set"`
			VariantID string              `json:"variantId"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if body.Set.ID == 0 || body.VariantID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "set and variantId are required"})
		}

		payload, err := s.RequestAsset(c.Context(), &body.Set, body.VariantID, authService.Credentials())
		if err != nil {
			var netErr *NetworkError
			if errors.As(err, &netErr) {
				slog.Error("Archive host rejected download", "setID", body.Set.SetID(), "status", netErr.Status)
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error(), "status": netErr.Status})
			}
			slog.Error("Download failed", "setID", body.Set.SetID(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"audio": payload})
	}
}

func statesHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(s.States())
	}
}
