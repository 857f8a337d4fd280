package extracting

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// ErrNoPairs reports an archive with no matching descriptor/audio pair.
var ErrNoPairs = errors.New("no matching descriptor/audio pair found in archive")

// FS is the filesystem surface the extractor runs against. Inside a worker
// every call is proxied to the host context, which owns the real disk.
type FS interface {
	Mkdir(ctx context.Context, dir string) error
	Exists(ctx context.Context, path string) (bool, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadTextFile(ctx context.Context, path string) (string, error)
	Remove(ctx context.Context, path string) error
}

// Transcoder converts one raw audio file to the target codec.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// Request carries one archive to extract.
type Request struct {
	SetID       string
	Archive     []byte
	SongsDir    string
	ExtractBase string
}

// Result is the outcome of a successful extraction.
type Result struct {
	AssetPaths     []string
	VariantID      string
	MultipleAudios bool
	AudioData      []byte
	// Title and Artist come from the raw audio's embedded tags, used as a
	// fallback when the remote descriptor carries no metadata.
	Title  string
	Artist string
}

var audioExtPattern = regexp.MustCompile(`(?i)\.(mp3|ogg|wav)$`)

// Extractor unpacks an archive bundle, locates descriptor+audio pairs and
// drives the transcoder to produce persisted assets.
type Extractor struct {
	fs         FS
	transcoder Transcoder
}

// New creates an extractor over the given filesystem and transcoder.
func New(fs FS, transcoder Transcoder) *Extractor {
	return &Extractor{fs: fs, transcoder: transcoder}
}

// Extract unpacks the archive, transcodes every distinct referenced audio
// file to <SongsDir>/<setID>-<variantID>.opus and returns the persisted
// asset paths. The temporary extraction directory is removed on success and
// failure alike. progress may be nil.
func (e *Extractor) Extract(ctx context.Context, req Request, progress func(int)) (*Result, error) {
	if progress == nil {
		progress = func(int) {}
	}
	progress(30)

	extractDir := filepath.Join(req.ExtractBase, fmt.Sprintf("extract-%s-%d", req.SetID, time.Now().UnixNano()))
	if err := e.fs.Mkdir(ctx, extractDir); err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer func() {
		// Cleanup must run even when ctx is already cancelled.
		cleanupCtx := context.WithoutCancel(ctx)
		if err := e.fs.Remove(cleanupCtx, extractDir); err != nil {
			slog.Warn("Failed to remove extraction directory", "dir", extractDir, "error", err)
		}
	}()

	zr, err := zip.NewReader(bytes.NewReader(req.Archive), int64(len(req.Archive)))
	if err != nil {
		return nil, fmt.Errorf("archive is not a readable zip container: %w", err)
	}

	// Unpack descriptor and audio candidates, discard everything else.
	// filenameMap records original -> sanitized names so descriptor
	// references can be resolved later; entryNames keeps archive order for
	// deterministic resolution.
	filenameMap := make(map[string]string)
	var entryNames []string
	var descriptorPaths []string
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		isDescriptor := strings.HasSuffix(entry.Name, ".osu")
		isAudio := audioExtPattern.MatchString(entry.Name)
		if !isDescriptor && !isAudio {
			continue
		}

		sanitized := Sanitize(entry.Name)
		filenameMap[entry.Name] = sanitized
		entryNames = append(entryNames, entry.Name)
		extractPath := filepath.Join(extractDir, sanitized)
		if isDescriptor {
			descriptorPaths = append(descriptorPaths, extractPath)
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", entry.Name, err)
		}
		if err := e.fs.WriteFile(ctx, extractPath, data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", extractPath, err)
		}
	}
	progress(50)

	// Parse descriptors in archive order. The variant id of the last
	// parsed descriptor names the produced asset, matching the wire
	// convention <setID>-<variantID>.opus.
	audioBySanitized := make(map[string]struct{})
	var audioOrder []string
	variantID := ""
	for _, path := range descriptorPaths {
		content, err := e.fs.ReadTextFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read descriptor %s: %w", path, err)
		}
		d, ok := parseDescriptor(content)
		if !ok {
			continue
		}
		variantID = d.variantID
		resolved := resolveAudioName(d.audioFile, entryNames, filenameMap)
		if _, seen := audioBySanitized[resolved]; !seen {
			audioBySanitized[resolved] = struct{}{}
			audioOrder = append(audioOrder, resolved)
		}
	}
	progress(60)

	// The produced asset is the first referenced audio; additional distinct
	// references only raise the MultipleAudios flag so the queue can surface
	// that the set carries more than one track.
	var assetPaths []string
	var firstRawAudio string
	present := 0
	for _, name := range audioOrder {
		srcPath := filepath.Join(extractDir, name)
		exists, err := e.fs.Exists(ctx, srcPath)
		if err != nil {
			return nil, err
		}
		if !exists {
			slog.Warn("Descriptor references missing audio file", "setID", req.SetID, "file", name)
			continue
		}
		present++
		if firstRawAudio != "" {
			continue
		}
		firstRawAudio = srcPath
		dst := filepath.Join(req.SongsDir, fmt.Sprintf("%s-%s.opus", req.SetID, variantID))
		if err := e.transcoder.Transcode(ctx, srcPath, dst); err != nil {
			return nil, err
		}
		assetPaths = append(assetPaths, dst)
	}
	progress(70)

	if len(assetPaths) == 0 {
		return nil, ErrNoPairs
	}

	result := &Result{
		AssetPaths:     assetPaths,
		VariantID:      variantID,
		MultipleAudios: present > 1,
	}

	result.AudioData, err = e.fs.ReadFile(ctx, assetPaths[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read transcoded asset: %w", err)
	}

	e.readTagFallback(ctx, firstRawAudio, result)
	return result, nil
}

// readTagFallback pulls title/artist from the raw audio's embedded tags.
// Best-effort: many community uploads carry none.
func (e *Extractor) readTagFallback(ctx context.Context, rawAudioPath string, result *Result) {
	if rawAudioPath == "" {
		return
	}
	data, err := e.fs.ReadFile(ctx, rawAudioPath)
	if err != nil {
		return
	}
	meta, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		slog.Debug("No readable tags in raw audio", "path", rawAudioPath, "error", err)
		return
	}
	result.Title = meta.Title()
	result.Artist = meta.Artist()
}
