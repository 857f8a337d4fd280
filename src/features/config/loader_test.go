package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.yaml")
	manager, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file was not written: %v", err)
	}

	cfg := manager.Get()
	if cfg.Server.Port != 3001 {
		t.Errorf("expected default port 3001, got %d", cfg.Server.Port)
	}
	if cfg.Catalog.BatchSize != 50 {
		t.Errorf("expected default batch size 50, got %d", cfg.Catalog.BatchSize)
	}
	if cfg.SongsPath != filepath.Join(home, "Stosufy", "Songs") {
		t.Errorf("unexpected songs path %q", cfg.SongsPath)
	}
	if info, err := os.Stat(cfg.SongsPath); err != nil || !info.IsDir() {
		t.Errorf("songs directory was not created: %v", err)
	}
	if info, err := os.Stat(cfg.ExtractPath); err != nil || !info.IsDir() {
		t.Errorf("extract directory was not created: %v", err)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `songsPath: ` + filepath.Join(dir, "songs") + `
extractPath: ` + filepath.Join(dir, "extract") + `
database:
  path: ` + filepath.Join(dir, "stosufy.db") + `
catalog:
  base_url: https://osu.ppy.sh
  download_url: https://osu.ppy.sh/beatmapsets/%s/download
auth:
  client_id: "1234"
  client_secret: from-file
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("STOSUFY_CLIENT_SECRET", "from-env")
	manager, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := manager.Get().Auth.ClientSecret; got != "from-env" {
		t.Errorf("expected env secret to win, got %q", got)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `songsPath: /tmp/songs
extractPath: /tmp/extract
database:
  path: /tmp/stosufy.db
catalog:
  base_url: not-a-url
  download_url: also-not-a-url
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for malformed catalog urls")
	}
}

func TestGetJSONRedactsSecrets(t *testing.T) {
	manager := NewManager(&Config{
		Auth:     Auth{ClientSecret: "super-secret"},
		Telegram: Telegram{Token: "bot-token"},
	})

	out := manager.GetJSON()
	if strings.Contains(out, "super-secret") || strings.Contains(out, "bot-token") {
		t.Errorf("secrets leaked into config JSON: %s", out)
	}
	if !strings.Contains(out, "<redacted>") {
		t.Errorf("expected redaction marker in %s", out)
	}
}
