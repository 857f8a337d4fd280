package playback

import (
	"context"
	"log/slog"
	"time"

	"github.com/stamerd/stosufy/src/features/playlists"
	"github.com/stamerd/stosufy/src/music"
)

// Rehydrate restores the queue persisted by the previous run. Only
// collection queues are restored; the gate waits for both the metadata store
// and the playlist cache before resolving, then fires exactly once.
func (s *Service) Rehydrate(ctx context.Context, library music.Library, lists *playlists.Service) {
	snap, ok := s.prefs.LastQueue()
	if !ok || SourceType(snap.Source) != SourceCollection {
		return
	}

	go func() {
		select {
		case <-library.Ready():
		case <-ctx.Done():
			return
		}
		select {
		case <-lists.Ready():
		case <-ctx.Done():
			return
		}

		var sequence []music.Song
		if snap.CollectionID != "" {
			list, ok := lists.Get(snap.CollectionID)
			if !ok {
				slog.Warn("Persisted queue references unknown playlist", "collectionID", snap.CollectionID)
				s.prefs.ClearLastQueue()
				return
			}
			for _, setID := range list.SetIDs {
				if set, ok := library.Get(setID); ok {
					sequence = append(sequence, music.SongFromSet(set))
				}
			}
		} else {
			sequence = library.Songs()
		}

		if len(sequence) == 0 {
			s.prefs.ClearLastQueue()
			return
		}

		offset := time.Duration(snap.OffsetSeconds * float64(time.Second))
		if err := s.SetQueue(ctx, snap.Index, sequence, SourceCollection, snap.CollectionID, false, offset); err != nil {
			slog.Warn("Queue rehydration failed", "error", err)
		}
	}()
}
