package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Manager holds the application configuration and provides thread-safe access to it.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a new Manager.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Update updates the configuration.
func (m *Manager) Update(config *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldConfig := m.config
	m.config = config

	if oldConfig != nil {
		slog.Debug("Configuration updated",
			"songs_path_changed", oldConfig.SongsPath != config.SongsPath,
			"telegram_enabled_changed", oldConfig.Telegram.Enabled != config.Telegram.Enabled,
			"watcher_enabled_changed", oldConfig.Watcher.Enabled != config.Watcher.Enabled,
		)
	}
}

// Save writes the current configuration to the specified file path.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create config file", "path", path, "error", err)
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(m.config); err != nil {
		slog.Error("failed to encode config", "path", path, "error", err)
		return err
	}

	slog.Info("Configuration saved successfully", "path", path)
	return nil
}

// EnsureDirectories creates the songs, extract and artwork directories if
// they don't exist.
func (m *Manager) EnsureDirectories() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if err := os.MkdirAll(cfg.SongsPath, 0755); err != nil {
		return fmt.Errorf("failed to create songs directory %s: %w", cfg.SongsPath, err)
	}
	if err := os.MkdirAll(cfg.ExtractPath, 0755); err != nil {
		return fmt.Errorf("failed to create extract directory %s: %w", cfg.ExtractPath, err)
	}
	if cfg.Artwork.Enabled && cfg.Artwork.Path != "" {
		if err := os.MkdirAll(cfg.Artwork.Path, 0755); err != nil {
			return fmt.Errorf("failed to create artwork directory %s: %w", cfg.Artwork.Path, err)
		}
	}

	slog.Info("Required directories created/verified", "songs", cfg.SongsPath, "extract", cfg.ExtractPath)
	return nil
}

// redactedCfg gets a redacted copy of the Config. Callers hold the lock.
func (m *Manager) redactedCfg() Config {
	var cfgCpy = *m.config
	cfgCpy.Auth.ClientSecret = "<redacted>"
	cfgCpy.Telegram.Token = "<redacted>"
	return cfgCpy
}

// GetJSON returns the current configuration as a JSON string.
func (m *Manager) GetJSON() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jsonBytes, err := json.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to JSON", "error", err)
		return err.Error()
	}
	return string(jsonBytes)
}
