// Package playback holds the queue state machine: ordered traversal,
// failure-tolerant index resolution, shuffle, and position persistence.
package playback

import (
	"context"
	"errors"
	"time"

	"github.com/stamerd/stosufy/src/music"
)

// SourceType says where queue audio comes from.
type SourceType string

const (
	// SourcePreview plays the catalog preview stream, no download involved.
	SourcePreview SourceType = "preview"
	// SourceCollection plays full assets resolved through the download
	// pipeline and the local cache.
	SourceCollection SourceType = "collection"
)

// ErrNoPlayableEntry is returned when index recovery has tried every entry
// in the sequence without resolving playable audio.
var ErrNoPlayableEntry = errors.New("no playable entry in queue")

// AudioHandle controls one loaded audio stream.
type AudioHandle interface {
	Play()
	Pause()
	Seek(offset time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	Close() error
}

// AudioEngine turns a source (local path or stream URL) into a playable
// handle. Opening a new source silences the previous one.
type AudioEngine interface {
	Open(ctx context.Context, source string, onFinished func()) (AudioHandle, error)
	SetVolume(level float64)
}

// Resolver produces a playable source for a queue entry.
type Resolver interface {
	Resolve(ctx context.Context, song music.Song, sourceType SourceType) (string, error)
}
