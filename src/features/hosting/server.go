package hosting

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/stamerd/stosufy/src/features/auth"
	"github.com/stamerd/stosufy/src/features/catalog"
	"github.com/stamerd/stosufy/src/features/config"
	"github.com/stamerd/stosufy/src/features/downloading"
	"github.com/stamerd/stosufy/src/features/library"
	"github.com/stamerd/stosufy/src/features/metrics"
	"github.com/stamerd/stosufy/src/features/playback"
	"github.com/stamerd/stosufy/src/features/playlists"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server and wires every feature's routes.
func NewServer(
	cfg *config.Manager,
	authService *auth.Service,
	catalogClient *catalog.Client,
	downloadService *downloading.Service,
	libraryService *library.Service,
	playbackService *playback.Service,
	playlistService *playlists.Service,
) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("Internal Server Error", "error", err)
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
		AppName:               "Stosufy",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
		BodyLimit:             200 * 1024 * 1024,
	})

	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	auth.RegisterRoutes(app, authService)
	catalog.RegisterRoutes(app, catalogClient)
	downloading.RegisterRoutes(app, downloadService, authService)
	library.RegisterRoutes(app, libraryService)
	playback.RegisterRoutes(app, playbackService)
	playlists.RegisterRoutes(app, playlistService)
	config.RegisterRoutes(app, cfg)
	metrics.RegisterRoutes(app)

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
