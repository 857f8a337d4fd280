package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// createDefaultConfig creates a new Config with sensible default values.
func createDefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, "Stosufy")
	return &Config{
		SongsPath:   filepath.Join(base, "Songs"),
		ExtractPath: filepath.Join(base, "extract"),
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Server: Server{
			Port:        3001,
			PrintRoutes: false,
		},
		Database: Database{
			Path: filepath.Join(base, "stosufy.db"),
		},
		Catalog: Catalog{
			BaseURL:     "https://osu.ppy.sh",
			DownloadURL: "https://osu.ppy.sh/beatmapsets/%s/download",
			BatchSize:   50,
		},
		Auth: Auth{
			ClientID:    "40234",
			RedirectURL: "stosufy://callback",
			TokenURL:    "https://osu.ppy.sh/oauth/token",
			SessionURL:  "https://osu.ppy.sh/notifications/endpoint",
		},
		Playlists: Playlists{
			BaseURL: "https://api.stamer-d.de/stosufy",
		},
		Telegram: Telegram{
			Enabled: false,
		},
		Transcode: Transcode{
			FFmpegPath: "ffmpeg",
			Bitrate:    "128k",
		},
		Artwork: Artwork{
			Enabled: true,
			Path:    filepath.Join(base, "covers"),
			Width:   256,
		},
		Watcher: Watcher{
			Enabled: true,
		},
	}
}

// saveDefaultConfig writes the default configuration to the given path.
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	return nil
}
