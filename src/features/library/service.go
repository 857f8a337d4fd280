// Package library exposes the downloaded song collection: listing, lookup,
// and removal with queue repair.
package library

import (
	"context"
	"fmt"

	"github.com/stamerd/stosufy/src/features/playback"
	"github.com/stamerd/stosufy/src/music"
)

// Service wraps the metadata store and keeps the playback queue consistent
// when a queued set is removed.
type Service struct {
	library music.Library
	queue   *playback.Service
}

func NewService(lib music.Library, queue *playback.Service) *Service {
	return &Service{library: lib, queue: queue}
}

// Songs returns all stored sets in canonical order.
func (s *Service) Songs() []music.Song {
	return s.library.Songs()
}

// Get returns one stored set.
func (s *Service) Get(setID string) (*music.Set, bool) {
	return s.library.Get(setID)
}

// Delete removes a set and its asset file. If the set sits in the active
// queue the queue is updated in place: deleting at the playing index moves
// to the next remaining entry, or the previous one when the deleted entry
// was last.
func (s *Service) Delete(ctx context.Context, setID string) error {
	if err := s.library.Delete(setID); err != nil {
		return fmt.Errorf("failed to delete set %s: %w", setID, err)
	}

	state := s.queue.State()
	pos := -1
	for i, song := range state.Sequence {
		if song.ID == setID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}

	remaining := append([]music.Song(nil), state.Sequence[:pos]...)
	remaining = append(remaining, state.Sequence[pos+1:]...)
	if len(remaining) == 0 {
		return s.queue.SetQueue(ctx, 0, nil, state.SourceType, state.CollectionID, false, 0)
	}

	index := state.CurrentIndex
	switch {
	case pos < index:
		index--
	case pos == index && index >= len(remaining):
		index = len(remaining) - 1
	}
	return s.queue.UpdateQueue(ctx, index, remaining, state.SourceType, state.CollectionID)
}
