package downloading

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stamerd/stosufy/src/features/auth"
	"github.com/stamerd/stosufy/src/features/config"
	"github.com/stamerd/stosufy/src/features/extracting"
	"github.com/stamerd/stosufy/src/infra/artwork"
	"github.com/stamerd/stosufy/src/infra/store"
	"github.com/stamerd/stosufy/src/music"
)

// mockExtractor writes a fake transcoded asset to disk so the store's cache
// check sees a readable file.
type mockExtractor struct {
	songsDir string
	calls    atomic.Int64
	delay    time.Duration
	err      error
}

func (m *mockExtractor) Extract(ctx context.Context, setID string, archive []byte, onProgress func(int)) (*extracting.Result, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	asset := filepath.Join(m.songsDir, setID+"-100.opus")
	if err := os.WriteFile(asset, []byte("opus-bytes-"+setID), 0644); err != nil {
		return nil, err
	}
	if onProgress != nil {
		onProgress(50)
	}
	return &extracting.Result{
		AssetPaths: []string{asset},
		VariantID:  "100",
		AudioData:  []byte("opus-bytes-" + setID),
	}, nil
}

type fixture struct {
	service   *Service
	extractor *mockExtractor
	library   *store.JSONStore
	fetches   *atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	songsDir := t.TempDir()

	var fetches atomic.Int64
	archiveHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Write([]byte("zip-bytes"))
	}))
	t.Cleanup(archiveHost.Close)

	cfg := config.NewManager(&config.Config{
		SongsPath: songsDir,
		Catalog: config.Catalog{
			DownloadURL: archiveHost.URL + "/%s",
		},
	})

	lib := store.New(filepath.Join(songsDir, "songData.json"))
	if err := lib.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}

	extractor := &mockExtractor{songsDir: songsDir}
	svc := NewService(cfg, lib, extractor, artwork.NewService(cfg))
	svc.clearDelay = 10 * time.Millisecond
	return &fixture{service: svc, extractor: extractor, library: lib, fetches: &fetches}
}

func descriptor(id int) *music.SetDescriptor {
	return &music.SetDescriptor{
		ID:     id,
		Title:  "Test Song " + strconv.Itoa(id),
		Artist: "Tester",
		Beatmaps: []music.VariantDescriptor{
			{ID: 100, Version: "Normal"},
		},
	}
}

func TestRequestAssetDownloadsAndRecords(t *testing.T) {
	f := newFixture(t)

	payload, err := f.service.RequestAsset(context.Background(), descriptor(1), "100", auth.Credentials{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := base64.StdEncoding.EncodeToString([]byte("opus-bytes-1"))
	if payload != want {
		t.Errorf("unexpected payload %q", payload)
	}
	if _, ok := f.library.CachedAsset("1", "100"); !ok {
		t.Error("asset not recorded in store")
	}
	set, ok := f.library.Get("1")
	if !ok {
		t.Fatal("set not stored")
	}
	if v := set.Variant("100"); v == nil || !v.Downloaded {
		t.Error("variant not marked downloaded")
	}
}

func TestRequestAssetIdempotent(t *testing.T) {
	f := newFixture(t)
	d := descriptor(2)

	first, err := f.service.RequestAsset(context.Background(), d, "100", auth.Credentials{})
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	second, err := f.service.RequestAsset(context.Background(), d, "100", auth.Credentials{})
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}

	if first != second {
		t.Error("cached payload differs from downloaded payload")
	}
	if got := f.fetches.Load(); got != 1 {
		t.Errorf("expected one network fetch, got %d", got)
	}
	if got := f.extractor.calls.Load(); got != 1 {
		t.Errorf("expected one extraction, got %d", got)
	}
}

func TestRequestAssetSingleFlight(t *testing.T) {
	f := newFixture(t)
	f.extractor.delay = 50 * time.Millisecond
	d := descriptor(3)

	const concurrency = 8
	var wg sync.WaitGroup
	payloads := make([]string, concurrency)
	errs := make([]error, concurrency)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payloads[i], errs[i] = f.service.RequestAsset(context.Background(), d, "100", auth.Credentials{})
		}(i)
	}
	wg.Wait()

	for i := 0; i < concurrency; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		if payloads[i] != payloads[0] {
			t.Errorf("request %d got a different payload", i)
		}
	}
	if got := f.extractor.calls.Load(); got != 1 {
		t.Errorf("expected exactly one extraction, got %d", got)
	}
}

func TestRequestAssetFailureClearsState(t *testing.T) {
	f := newFixture(t)
	f.extractor.err = errors.New("bad archive")
	d := descriptor(4)

	if _, err := f.service.RequestAsset(context.Background(), d, "100", auth.Credentials{}); err == nil {
		t.Fatal("expected error")
	}
	if states := f.service.States(); len(states) != 0 {
		t.Errorf("expected no lingering state, got %v", states)
	}

	// A retry after failure must be possible.
	f.extractor.err = nil
	if _, err := f.service.RequestAsset(context.Background(), d, "100", auth.Credentials{}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestRequestAssetNetworkError(t *testing.T) {
	songsDir := t.TempDir()
	archiveHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(archiveHost.Close)

	cfg := config.NewManager(&config.Config{
		SongsPath: songsDir,
		Catalog:   config.Catalog{DownloadURL: archiveHost.URL + "/%s"},
	})
	lib := store.New(filepath.Join(songsDir, "songData.json"))
	if err := lib.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	svc := NewService(cfg, lib, &mockExtractor{songsDir: songsDir}, artwork.NewService(cfg))

	_, err := svc.RequestAsset(context.Background(), descriptor(5), "100", auth.Credentials{})
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", netErr.Status)
	}
}

func TestStateClearedAfterGraceDelay(t *testing.T) {
	f := newFixture(t)

	if _, err := f.service.RequestAsset(context.Background(), descriptor(6), "100", auth.Credentials{}); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(f.service.States()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("progress state never cleared: %v", f.service.States())
}
