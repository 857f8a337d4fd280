package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/stamerd/stosufy/src/features/auth"
	"github.com/stamerd/stosufy/src/features/catalog"
	"github.com/stamerd/stosufy/src/features/config"
	"github.com/stamerd/stosufy/src/features/downloading"
	"github.com/stamerd/stosufy/src/features/hosting"
	"github.com/stamerd/stosufy/src/features/library"
	"github.com/stamerd/stosufy/src/features/logging"
	"github.com/stamerd/stosufy/src/features/playback"
	"github.com/stamerd/stosufy/src/features/playlists"
	"github.com/stamerd/stosufy/src/features/presence"
	"github.com/stamerd/stosufy/src/features/transcoding"
	"github.com/stamerd/stosufy/src/features/worker"
	"github.com/stamerd/stosufy/src/infra/artwork"
	"github.com/stamerd/stosufy/src/infra/player"
	"github.com/stamerd/stosufy/src/infra/settings"
	"github.com/stamerd/stosufy/src/infra/store"
	"github.com/stamerd/stosufy/src/infra/watcher"
)

// audioEngine adapts the concrete player to the queue's engine contract.
type audioEngine struct {
	*player.Engine
}

func (e audioEngine) Open(ctx context.Context, source string, onFinished func()) (playback.AudioHandle, error) {
	return e.Engine.Open(ctx, source, onFinished)
}

func main() {
	// Environment secrets, optional in production.
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env")
	}

	cfgManager, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	if err := cfgManager.EnsureDirectories(); err != nil {
		log.Fatalf("failed to create data directories: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prefs, err := settings.New(cfgManager.Get().Database.Path)
	if err != nil {
		log.Fatalf("failed to open preferences database: %v", err)
	}
	defer prefs.Close()

	metadataStore := store.New(filepath.Join(cfgManager.Get().SongsPath, "songData.json"))
	if err := metadataStore.Load(); err != nil {
		log.Fatalf("failed to load metadata store: %v", err)
	}

	authService := auth.NewService(auth.NewClient(cfgManager), prefs)
	authService.StartRefreshLoop(ctx)
	defer authService.Stop()

	transcoder := transcoding.NewService(cfgManager)
	workerService := worker.NewService(cfgManager, transcoder)
	artworkService := artwork.NewService(cfgManager)
	downloadService := downloading.NewService(cfgManager, metadataStore, workerService, artworkService)

	catalogClient := catalog.NewClient(cfgManager, authService)

	playlistService := playlists.NewService(playlists.NewClient(cfgManager, authService))
	go func() {
		if err := playlistService.Refresh(ctx); err != nil {
			slog.Warn("Initial playlist refresh failed", "error", err)
		}
	}()

	var notifier presence.Notifier = presence.LogNotifier{}
	if cfgManager.Get().Telegram.Enabled {
		telegram, err := presence.NewTelegramNotifier(cfgManager.Get().Telegram)
		if err != nil {
			slog.Error("Failed to initialize Telegram presence, falling back to log", "error", err)
		} else {
			notifier = telegram
		}
	}

	engine := player.NewEngine()
	engine.SetVolume(prefs.Volume())

	resolver := playback.NewResolver(downloadService, authService, metadataStore)
	playbackService := playback.NewService(audioEngine{engine}, resolver, prefs, notifier)
	go playbackService.Run(ctx)
	playbackService.Rehydrate(ctx, metadataStore, playlistService)

	if cfgManager.Get().Watcher.Enabled {
		assetWatcher, err := watcher.NewWatcher(metadataStore)
		if err != nil {
			slog.Error("Failed to create asset watcher", "error", err)
		} else if err := assetWatcher.Start(ctx, cfgManager.Get().SongsPath); err != nil {
			slog.Error("Failed to start asset watcher", "error", err)
		} else {
			defer assetWatcher.Stop()
		}
	}

	libraryService := library.NewService(metadataStore, playbackService)

	server := hosting.NewServer(cfgManager, authService, catalogClient, downloadService, libraryService, playbackService, playlistService)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Server stopped", "error", err)
		}
	}()
	slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfgManager.Get().Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	slog.Info("Shutting down server...")

	cancel()
	if err := server.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown server: %v", err)
	}
	slog.Info("Server gracefully shut down.")
}
