// Package presence announces the currently playing song to external
// channels.
package presence

import "log/slog"

// Notifier receives now-playing updates from the playback queue.
type Notifier interface {
	NowPlaying(title, artist string) error
	Clear() error
}

// LogNotifier writes now-playing updates to the application log. It is the
// fallback when no external channel is configured.
type LogNotifier struct{}

func (LogNotifier) NowPlaying(title, artist string) error {
	slog.Info("Now playing", "title", title, "artist", artist)
	return nil
}

func (LogNotifier) Clear() error {
	return nil
}
