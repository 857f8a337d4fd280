// Package downloading coordinates archive acquisition end to end: fetch,
// extraction, transcoding, store updates, and per-set progress reporting.
package downloading

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/stamerd/stosufy/src/features/auth"
	"github.com/stamerd/stosufy/src/features/config"
	"github.com/stamerd/stosufy/src/features/extracting"
	"github.com/stamerd/stosufy/src/features/metrics"
	"github.com/stamerd/stosufy/src/infra/artwork"
	"github.com/stamerd/stosufy/src/music"
)

// Extractor unpacks an archive and produces transcoded assets. Implemented by
// the worker service.
type Extractor interface {
	Extract(ctx context.Context, setID string, archive []byte, onProgress func(int)) (*extracting.Result, error)
}

// State is the transient per-set progress record. It exists only while a
// download is in flight and shortly after it completes.
type State struct {
	IsDownloading bool `json:"isDownloading"`
	Progress      int  `json:"progress"`
}

// NetworkError reports a non-success status from the archive host.
type NetworkError struct {
	Status int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("archive fetch failed with status %d", e.Status)
}

type flight struct {
	done    chan struct{}
	payload string
	err     error
}

// Service is the download orchestrator. At most one download runs per set id;
// concurrent requests for an in-flight set join it and share its result.
type Service struct {
	config  *config.Manager
	library music.Library
	worker  Extractor
	artwork *artwork.Service
	http    *http.Client

	mu       sync.Mutex
	inflight map[string]*flight
	states   map[string]State

	// clearDelay is how long a finished download's progress entry stays
	// visible before it is removed.
	clearDelay time.Duration
}

func NewService(cfg *config.Manager, library music.Library, worker Extractor, art *artwork.Service) *Service {
	return &Service{
		config:     cfg,
		library:    library,
		worker:     worker,
		artwork:    art,
		http:       &http.Client{Timeout: 5 * time.Minute},
		inflight:   make(map[string]*flight),
		states:     make(map[string]State),
		clearDelay: time.Second,
	}
}

// RequestAsset returns the transcoded audio for the requested variant as a
// base64 payload. Cached assets are served without touching the network; a
// miss triggers the full acquisition pipeline. When a download for the same
// set is already in flight the caller waits for it and receives its result.
func (s *Service) RequestAsset(ctx context.Context, d *music.SetDescriptor, variantID string, creds auth.Credentials) (string, error) {
	setID := d.SetID()

	if path, ok := s.library.CachedAsset(setID, variantID); ok {
		data, err := os.ReadFile(path)
		if err == nil {
			s.library.Merge(d)
			metrics.CacheHits.Inc()
			slog.Debug("Serving asset from cache", "setID", setID, "variantID", variantID)
			return base64.StdEncoding.EncodeToString(data), nil
		}
		slog.Warn("Cached asset unreadable, falling back to download", "path", path, "error", err)
		s.library.MarkAssetMissing(path)
	}

	s.mu.Lock()
	if f, ok := s.inflight[setID]; ok {
		s.mu.Unlock()
		slog.Debug("Joining in-flight download", "setID", setID)
		select {
		case <-f.done:
			return f.payload, f.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	s.inflight[setID] = f
	s.states[setID] = State{IsDownloading: true, Progress: 0}
	s.mu.Unlock()

	payload, err := s.download(ctx, d, setID, creds)

	f.payload = payload
	f.err = err
	close(f.done)

	s.mu.Lock()
	delete(s.inflight, setID)
	if err != nil {
		delete(s.states, setID)
	} else {
		s.states[setID] = State{IsDownloading: false, Progress: 100}
		time.AfterFunc(s.clearDelay, func() {
			s.mu.Lock()
			delete(s.states, setID)
			s.mu.Unlock()
		})
	}
	s.mu.Unlock()

	if err != nil {
		metrics.DownloadsTotal.WithLabelValues("failure").Inc()
		return "", err
	}
	metrics.DownloadsTotal.WithLabelValues("success").Inc()
	return payload, nil
}

// States returns a snapshot of the per-set progress map.
func (s *Service) States() map[string]State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]State, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

func (s *Service) download(ctx context.Context, d *music.SetDescriptor, setID string, creds auth.Credentials) (string, error) {
	archive, err := s.fetchArchive(ctx, setID, creds)
	if err != nil {
		return "", err
	}
	s.setProgress(setID, 20)

	s.register(ctx, setID, creds)
	s.setProgress(setID, 25)

	result, err := s.worker.Extract(ctx, setID, archive, func(pct int) {
		s.setProgress(setID, pct)
	})
	if err != nil {
		return "", fmt.Errorf("extraction of set %s failed: %w", setID, err)
	}

	s.library.RecordDownload(d, result.AssetPaths[0], result.MultipleAudios)

	if set, ok := s.library.Get(setID); ok {
		if _, err := s.artwork.CacheCover(ctx, set); err != nil {
			slog.Warn("Cover caching failed", "setID", setID, "error", err)
		}
	}

	slog.Info("Download complete", "setID", setID, "variantID", result.VariantID,
		"assets", len(result.AssetPaths), "multipleAudios", result.MultipleAudios)
	return base64.StdEncoding.EncodeToString(result.AudioData), nil
}

// fetchArchive downloads the raw bundle. The archive host authorizes via the
// session cookie, not the bearer token.
func (s *Service) fetchArchive(ctx context.Context, setID string, creds auth.Credentials) ([]byte, error) {
	url := fmt.Sprintf(s.config.Get().Catalog.DownloadURL, setID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive request: %w", err)
	}
	req.Header.Set("Cookie", "osu_session="+creds.SessionKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading archive body failed: %w", err)
	}
	slog.Debug("Archive fetched", "setID", setID, "bytes", len(data))
	return data, nil
}

// register tells the remote playlist service the user owns this set now.
// Best effort: a failure here never aborts the download.
func (s *Service) register(ctx context.Context, setID string, creds auth.Credentials) {
	base := s.config.Get().Playlists.BaseURL
	if base == "" {
		return
	}
	body, _ := json.Marshal(map[string]string{"song": setID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/addsong", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		slog.Warn("Set registration failed", "setID", setID, "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("Set registration rejected", "setID", setID, "status", resp.StatusCode)
	}
}

func (s *Service) setProgress(setID string, pct int) {
	s.mu.Lock()
	if st, ok := s.states[setID]; ok {
		st.Progress = pct
		s.states[setID] = st
	}
	s.mu.Unlock()
}
