package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/stamerd/stosufy/src/music"
)

// JSONStore is the file-backed implementation of music.Library. The whole
// snapshot lives in memory; every mutation happens under one mutex and is
// followed by a full-file rewrite, so concurrent writers cannot lose updates
// to each other. Persistence failures are logged and never surfaced: the
// in-memory state stays authoritative.
type JSONStore struct {
	mu          sync.Mutex
	path        string
	sets        map[string]*music.Set
	subscribers []chan struct{}
	ready       chan struct{}
	readyOnce   sync.Once
}

// New creates a store backed by the given JSON file. Call Load before use.
func New(path string) *JSONStore {
	return &JSONStore{
		path:  path,
		sets:  make(map[string]*music.Set),
		ready: make(chan struct{}),
	}
}

// Load reads the persisted file, creating an empty one when absent.
func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		if err := os.WriteFile(s.path, []byte("{}"), 0644); err != nil {
			return fmt.Errorf("failed to create metadata file: %w", err)
		}
		s.markReady()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read metadata file: %w", err)
	}

	sets := make(map[string]*music.Set)
	if err := json.Unmarshal(data, &sets); err != nil {
		return fmt.Errorf("failed to parse metadata file %s: %w", s.path, err)
	}
	for id, set := range sets {
		if set.ID == "" {
			set.ID = id
		}
	}
	s.sets = sets
	s.markReady()
	slog.Info("Metadata store loaded", "path", s.path, "sets", len(sets))
	return nil
}

func (s *JSONStore) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Ready is closed once Load has completed.
func (s *JSONStore) Ready() <-chan struct{} {
	return s.ready
}

// Subscribe returns a channel signalled after every committed mutation.
func (s *JSONStore) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{}, 1)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// notify signals subscribers without ever blocking on a slow one.
// Callers hold the lock.
func (s *JSONStore) notify() {
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// flush rewrites the whole file from the in-memory snapshot. Callers hold
// the lock. Errors are logged, not returned: the store stays usable.
func (s *JSONStore) flush() {
	data, err := json.Marshal(s.sets)
	if err != nil {
		slog.Error("Failed to marshal metadata store", "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		slog.Error("Failed to persist metadata store", "path", s.path, "error", err)
	}
}

// Get returns a copy of the stored set, if any.
func (s *JSONStore) Get(setID string) (*music.Set, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[setID]
	if !ok {
		return nil, false
	}
	return set.Clone(), true
}

// Songs returns all stored sets in canonical ordered form, newest first.
func (s *JSONStore) Songs() []music.Song {
	s.mu.Lock()
	defer s.mu.Unlock()

	songs := make([]music.Song, 0, len(s.sets))
	for _, set := range s.sets {
		songs = append(songs, music.SongFromSet(set))
	}
	sort.Slice(songs, func(i, j int) bool {
		return songs[i].CreatedAt > songs[j].CreatedAt
	})
	return songs
}

// CachedAsset reports the readable on-disk asset for a variant.
func (s *JSONStore) CachedAsset(setID, variantID string) (string, bool) {
	s.mu.Lock()
	set, ok := s.sets[setID]
	var path string
	if ok {
		if v := set.Variant(variantID); v != nil && v.Downloaded {
			path = v.AudioFile
		}
	}
	s.mu.Unlock()

	if path == "" {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Merge applies a metadata-only refresh, creating the set when absent.
func (s *JSONStore) Merge(d *music.SetDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[d.SetID()]
	if !ok {
		set = music.NewSet(d)
		s.sets[d.SetID()] = set
	}
	set.Merge(d)
	s.flush()
	s.notify()
}

// RecordDownload merges the descriptor and attaches the transcoded asset,
// marking the descriptor's variants downloaded.
func (s *JSONStore) RecordDownload(d *music.SetDescriptor, assetPath string, multipleAudios bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[d.SetID()]
	if !ok {
		set = music.NewSet(d)
		s.sets[d.SetID()] = set
	}
	set.Merge(d)
	set.MultipleAudios = multipleAudios
	for _, v := range set.Beatmaps {
		v.Downloaded = true
		v.AudioFile = assetPath
	}
	s.flush()
	s.notify()
	slog.Info("Recorded download", "setID", set.ID, "asset", assetPath)
}

// MarkAssetMissing flips variants referencing the given asset path back to
// not-downloaded.
func (s *JSONStore) MarkAssetMissing(assetPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, set := range s.sets {
		for _, v := range set.Beatmaps {
			if v.AudioFile == assetPath && v.Downloaded {
				v.Downloaded = false
				v.AudioFile = ""
				changed = true
			}
		}
	}
	if changed {
		slog.Warn("Asset file went missing, variants marked not downloaded", "path", assetPath)
		s.flush()
		s.notify()
	}
}

// Delete removes a set and its backing asset file.
func (s *JSONStore) Delete(setID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[setID]
	if !ok {
		return fmt.Errorf("set %s not found", setID)
	}

	// All variants of a set share one asset file unless multiple audio
	// tracks were extracted, so collect distinct paths.
	paths := make(map[string]struct{})
	for _, v := range set.Beatmaps {
		if v.AudioFile != "" {
			paths[v.AudioFile] = struct{}{}
		}
	}
	for path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove asset file", "path", path, "error", err)
		}
	}

	delete(s.sets, setID)
	s.flush()
	s.notify()
	slog.Info("Set deleted", "setID", setID)
	return nil
}
