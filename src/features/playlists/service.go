package playlists

import (
	"context"
	"log/slog"
	"sync"
)

// Service caches the user's playlists in memory so queue rehydration and the
// HTTP surface never wait on the remote per request.
type Service struct {
	client *Client

	mu    sync.RWMutex
	lists []Playlist

	ready     chan struct{}
	readyOnce sync.Once
}

func NewService(client *Client) *Service {
	return &Service{
		client: client,
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the first remote fetch has completed, successfully or
// not. Playback rehydration waits on it before resolving a playlist queue.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Refresh reloads the playlist cache from the remote. The ready channel is
// closed after the first attempt regardless of outcome so waiters are never
// stuck behind an unreachable service.
func (s *Service) Refresh(ctx context.Context) error {
	defer s.readyOnce.Do(func() { close(s.ready) })

	lists, err := s.client.Fetch(ctx)
	if err != nil {
		slog.Warn("Playlist refresh failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.lists = lists
	s.mu.Unlock()

	slog.Debug("Playlists refreshed", "count", len(lists))
	return nil
}

// All returns a snapshot of the cached playlists.
func (s *Service) All() []Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Playlist, len(s.lists))
	copy(out, s.lists)
	return out
}

// Get returns the cached playlist with the given id.
func (s *Service) Get(id string) (Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.lists {
		if p.ID == id {
			return p, true
		}
	}
	return Playlist{}, false
}

// Create makes a playlist remotely and adds it to the cache.
func (s *Service) Create(ctx context.Context, name string) (*Playlist, error) {
	created, err := s.client.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lists = append(s.lists, *created)
	s.mu.Unlock()
	return created, nil
}

// Delete removes a playlist remotely and from the cache.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	for i, p := range s.lists {
		if p.ID == id {
			s.lists = append(s.lists[:i], s.lists[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// AddSong appends a set to a playlist remotely and in the cache.
func (s *Service) AddSong(ctx context.Context, playlistID, setID string) error {
	if err := s.client.AddSong(ctx, playlistID, setID); err != nil {
		return err
	}
	s.mu.Lock()
	for i := range s.lists {
		if s.lists[i].ID == playlistID {
			s.lists[i].SetIDs = append(s.lists[i].SetIDs, setID)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// RemoveSong removes a set from a playlist remotely and in the cache.
func (s *Service) RemoveSong(ctx context.Context, playlistID, setID string) error {
	if err := s.client.RemoveSong(ctx, playlistID, setID); err != nil {
		return err
	}
	s.mu.Lock()
	for i := range s.lists {
		if s.lists[i].ID != playlistID {
			continue
		}
		for j, id := range s.lists[i].SetIDs {
			if id == setID {
				s.lists[i].SetIDs = append(s.lists[i].SetIDs[:j], s.lists[i].SetIDs[j+1:]...)
				break
			}
		}
		break
	}
	s.mu.Unlock()
	return nil
}
