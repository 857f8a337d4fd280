package config

// Config holds the application configuration.
type Config struct {
	SongsPath   string    `yaml:"songsPath" validate:"required"`
	ExtractPath string    `yaml:"extractPath" validate:"required"`
	Logger      Logger    `yaml:"logger"`
	Server      Server    `yaml:"server"`
	Database    Database  `yaml:"database"`
	Catalog     Catalog   `yaml:"catalog"`
	Auth        Auth      `yaml:"auth"`
	Playlists   Playlists `yaml:"playlists"`
	Telegram    Telegram  `yaml:"telegram"`
	Transcode   Transcode `yaml:"transcode"`
	Artwork     Artwork   `yaml:"artwork"`
	Watcher     Watcher   `yaml:"watcher"`
}

// Server holds the configuration for the Fiber server.
type Server struct {
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Logger holds the configuration for the app logging.
type Logger struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// Database holds the configuration for the preferences database.
type Database struct {
	Path string `yaml:"path" validate:"required"`
}

// Catalog holds the endpoints of the remote beatmap catalog.
type Catalog struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
	// DownloadURL is a printf template; the set id fills the %s slot, so the
	// raw value is not itself a parseable URL.
	DownloadURL string `yaml:"download_url" validate:"required"`
	// BatchSize caps how many variant ids a single detail lookup may carry.
	BatchSize int `yaml:"batch_size"`
}

// Auth holds the OAuth exchange configuration for the catalog.
type Auth struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret,omitempty"`
	RedirectURL  string `yaml:"redirect_url"`
	TokenURL     string `yaml:"token_url" validate:"omitempty,url"`
	SessionURL   string `yaml:"session_url" validate:"omitempty,url"`
}

// Playlists holds the remote collection service configuration.
type Playlists struct {
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
}

// Telegram holds the now-playing notifier configuration.
type Telegram struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// Transcode holds the encoder invocation settings.
type Transcode struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
	Bitrate    string `yaml:"bitrate"`
}

// Artwork holds the cover cache configuration.
type Artwork struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Width   uint   `yaml:"width"`
}

// Watcher holds the songs directory watcher configuration.
type Watcher struct {
	Enabled bool `yaml:"enabled"`
}
