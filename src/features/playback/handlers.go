package playback

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stamerd/stosufy/src/music"
)

func stateHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(s.State())
	}
}

func currentSongHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(s.CurrentSong())
	}
}

func setQueueHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Index         int          `json:"index"`
			Sequence      []music.Song `json:"sequence"`
			SourceType    SourceType   `json:"sourceType"`
			CollectionID  string       `json:"collectionId"`
			Autoplay      bool         `json:"autoplay"`
			OffsetSeconds float64      `json:"offsetSeconds"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if body.SourceType != SourcePreview && body.SourceType != SourceCollection {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sourceType must be preview or collection"})
		}

		offset := time.Duration(body.OffsetSeconds * float64(time.Second))
		err := s.SetQueue(c.Context(), body.Index, body.Sequence, body.SourceType, body.CollectionID, body.Autoplay, offset)
		if err != nil {
			if errors.Is(err, ErrNoPlayableEntry) {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
			}
			slog.Error("Queue replacement failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(s.State())
	}
}

func togglePlayHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.TogglePlay()
		return c.JSON(s.State())
	}
}

func stopHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.Stop(c.QueryBool("pauseOnly"))
		return c.JSON(s.State())
	}
}

func skipForwardHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.SkipForward(c.Context()); err != nil {
			return skipError(c, err)
		}
		return c.JSON(s.State())
	}
}

func skipBackwardHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.SkipBackward(c.Context()); err != nil {
			return skipError(c, err)
		}
		return c.JSON(s.State())
	}
}

func shuffleHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Enabled bool `json:"enabled"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := s.prefs.SetShuffle(body.Enabled); err != nil {
			slog.Warn("Failed to persist shuffle preference", "error", err)
		}
		if err := s.Shuffle(c.Context()); err != nil {
			return skipError(c, err)
		}
		return c.JSON(s.State())
	}
}

func skipError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrNoPlayableEntry) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	slog.Error("Queue navigation failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
