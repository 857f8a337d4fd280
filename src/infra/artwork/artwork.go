// Package artwork downloads set covers and keeps resized thumbnails in a
// local cache.
package artwork

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"github.com/stamerd/stosufy/src/features/config"
	"github.com/stamerd/stosufy/src/music"
)

// Service handles cover downloading, resizing, and caching.
type Service struct {
	config *config.Manager
	http   *http.Client
}

// NewService creates a new artwork service.
func NewService(cfg *config.Manager) *Service {
	return &Service{
		config: cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// CacheCover fetches the best cover for the set and stores a resized
// thumbnail in the cache directory. A cached file younger than 24 hours is
// reused as is.
func (s *Service) CacheCover(ctx context.Context, set *music.Set) (string, error) {
	cfg := s.config.Get()
	if !cfg.Artwork.Enabled {
		return "", nil
	}

	coverURL := pickCover(set)
	if coverURL == "" {
		slog.Debug("No cover available for set", "setID", set.ID)
		return "", nil
	}

	if err := os.MkdirAll(cfg.Artwork.Path, 0755); err != nil {
		return "", fmt.Errorf("failed to create artwork cache directory: %w", err)
	}

	hash := md5.Sum([]byte(coverURL))
	cachePath := filepath.Join(cfg.Artwork.Path, fmt.Sprintf("%x.jpg", hash))

	if info, err := os.Stat(cachePath); err == nil {
		if time.Since(info.ModTime()) < 24*time.Hour {
			slog.Debug("Using cached cover", "path", cachePath)
			return cachePath, nil
		}
		os.Remove(cachePath)
	}

	data, err := s.fetch(ctx, coverURL)
	if err != nil {
		return "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode cover image: %w", err)
	}
	if cfg.Artwork.Width > 0 {
		img = resize.Resize(cfg.Artwork.Width, 0, img, resize.Lanczos3)
	}

	out, err := os.Create(cachePath)
	if err != nil {
		return "", fmt.Errorf("failed to create cover file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: 85}); err != nil {
		os.Remove(cachePath)
		return "", fmt.Errorf("failed to encode cover image: %w", err)
	}

	slog.Debug("Cover cached", "setID", set.ID, "path", cachePath)
	return cachePath, nil
}

// CachedCover returns the cache path for a previously stored cover.
func (s *Service) CachedCover(set *music.Set) (string, bool) {
	coverURL := pickCover(set)
	if coverURL == "" {
		return "", false
	}
	hash := md5.Sum([]byte(coverURL))
	cachePath := filepath.Join(s.config.Get().Artwork.Path, fmt.Sprintf("%x.jpg", hash))
	if _, err := os.Stat(cachePath); err != nil {
		return "", false
	}
	return cachePath, true
}

func (s *Service) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func pickCover(set *music.Set) string {
	for _, key := range []string{"list@2x", "list", "card", "cover"} {
		if url, ok := set.Covers[key]; ok && url != "" {
			return url
		}
	}
	return ""
}
