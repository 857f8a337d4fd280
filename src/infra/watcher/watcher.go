// Package watcher monitors the songs directory for assets removed outside
// the application and flips their variants back to not-downloaded.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/stamerd/stosufy/src/music"
)

// Watcher monitors the songs directory for deleted asset files.
type Watcher struct {
	watcher   *fsnotify.Watcher
	library   music.Library
	watchPath string
	running   bool
	stopChan  chan struct{}
}

// NewWatcher creates a new file system watcher over the asset cache.
func NewWatcher(library music.Library) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  watcher,
		library:  library,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching the songs directory.
func (w *Watcher) Start(ctx context.Context, watchPath string) error {
	w.watchPath = watchPath
	slog.Info("Starting asset watcher", "path", watchPath)

	if err := w.watcher.Add(watchPath); err != nil {
		return err
	}
	w.running = true

	go w.watchLoop(ctx)
	return nil
}

// Stop stops the file watcher.
func (w *Watcher) Stop() {
	if !w.running {
		return
	}
	slog.Info("Stopping asset watcher")
	w.running = false
	close(w.stopChan)
	w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Asset watcher error", "error", err)

		case <-w.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}

// handleEvent marks assets missing when their files are removed or renamed
// away.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if strings.ToLower(filepath.Ext(event.Name)) != ".opus" {
		return
	}

	slog.Info("Asset file removed outside the application", "file", event.Name)
	w.library.MarkAssetMissing(event.Name)
}
