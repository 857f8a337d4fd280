package worker

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stamerd/stosufy/src/features/config"
	"github.com/stamerd/stosufy/src/features/extracting"
)

// copyTranscoder stands in for the real encoder by copying bytes across.
type copyTranscoder struct {
	calls int
	err   error
}

func (c *copyTranscoder) Transcode(ctx context.Context, src, dst string) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func testConfig(t *testing.T) *config.Manager {
	t.Helper()
	return config.NewManager(&config.Config{
		SongsPath:   t.TempDir(),
		ExtractPath: t.TempDir(),
	})
}

func testArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestServiceExtractEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	tr := &copyTranscoder{}
	svc := NewService(cfg, tr)

	archive := testArchive(t, map[string]string{
		"song.osu":  "BeatmapID:42\nAudioFilename: audio.mp3\n",
		"audio.mp3": "audio-payload",
	})

	var progress []int
	result, err := svc.Extract(context.Background(), "77", archive, func(p int) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := filepath.Join(cfg.Get().SongsPath, "77-42.opus")
	if len(result.AssetPaths) != 1 || result.AssetPaths[0] != want {
		t.Errorf("expected asset %s, got %v", want, result.AssetPaths)
	}
	if string(result.AudioData) != "audio-payload" {
		t.Errorf("unexpected audio payload %q", result.AudioData)
	}
	if tr.calls != 1 {
		t.Errorf("expected one transcode call, got %d", tr.calls)
	}
	if len(progress) == 0 || progress[len(progress)-1] != 70 {
		t.Errorf("expected progress checkpoints ending at 70, got %v", progress)
	}

	// Extraction workspace must be gone.
	entries, err := os.ReadDir(cfg.Get().ExtractPath)
	if err != nil {
		t.Fatalf("failed to read extract dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("extraction directory not cleaned up: %v", entries)
	}
}

func TestServiceExtractRelaysTypedError(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg, &copyTranscoder{})

	archive := testArchive(t, map[string]string{
		"readme.txt": "no descriptors here",
	})

	_, err := svc.Extract(context.Background(), "9", archive, nil)
	if !errors.Is(err, extracting.ErrNoPairs) {
		t.Fatalf("expected ErrNoPairs, got %v", err)
	}
}

func TestServiceExtractRejectsGarbageArchive(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg, &copyTranscoder{})

	if _, err := svc.Extract(context.Background(), "9", []byte("not a zip"), nil); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

func TestServiceExtractTranscodeFailure(t *testing.T) {
	cfg := testConfig(t)
	tr := &copyTranscoder{err: errors.New("encoder failed")}
	svc := NewService(cfg, tr)

	archive := testArchive(t, map[string]string{
		"song.osu": "BeatmapID:1\nAudioFilename: a.mp3\n",
		"a.mp3":    "payload",
	})

	_, err := svc.Extract(context.Background(), "3", archive, nil)
	if err == nil {
		t.Fatal("expected transcode failure to surface")
	}

	entries, readErr := os.ReadDir(cfg.Get().ExtractPath)
	if readErr != nil {
		t.Fatalf("failed to read extract dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("extraction directory not cleaned up after failure: %v", entries)
	}
}
