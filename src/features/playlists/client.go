package playlists

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stamerd/stosufy/src/features/auth"
	"github.com/stamerd/stosufy/src/features/config"
)

// Playlist is a named, ordered collection of sets hosted on the remote
// playlist service.
type Playlist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	SetIDs []string `json:"songs"`
}

// Client talks to the remote playlist service.
type Client struct {
	config *config.Manager
	auth   *auth.Service
	http   *http.Client
}

func NewClient(cfg *config.Manager, authService *auth.Service) *Client {
	return &Client{
		config: cfg,
		auth:   authService,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves all playlists owned by the authenticated user.
func (c *Client) Fetch(ctx context.Context) ([]Playlist, error) {
	var lists []Playlist
	if err := c.do(ctx, http.MethodGet, "/playlists", nil, &lists); err != nil {
		return nil, fmt.Errorf("fetching playlists failed: %w", err)
	}
	return lists, nil
}

// Create makes a new empty playlist and returns it.
func (c *Client) Create(ctx context.Context, name string) (*Playlist, error) {
	body := map[string]string{"name": name}
	var created Playlist
	if err := c.do(ctx, http.MethodPost, "/playlists", body, &created); err != nil {
		return nil, fmt.Errorf("creating playlist %q failed: %w", name, err)
	}
	return &created, nil
}

// Delete removes a playlist.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/playlists/"+id, nil, nil); err != nil {
		return fmt.Errorf("deleting playlist %s failed: %w", id, err)
	}
	return nil
}

// AddSong appends a set to a playlist.
func (c *Client) AddSong(ctx context.Context, playlistID, setID string) error {
	body := map[string]string{"song": setID}
	if err := c.do(ctx, http.MethodPost, "/playlists/"+playlistID+"/songs", body, nil); err != nil {
		return fmt.Errorf("adding set %s to playlist %s failed: %w", setID, playlistID, err)
	}
	return nil
}

// RemoveSong removes a set from a playlist.
func (c *Client) RemoveSong(ctx context.Context, playlistID, setID string) error {
	if err := c.do(ctx, http.MethodDelete, "/playlists/"+playlistID+"/songs/"+setID, nil, nil); err != nil {
		return fmt.Errorf("removing set %s from playlist %s failed: %w", setID, playlistID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	endpoint := c.config.Get().Playlists.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.auth.Credentials().AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("playlist service returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
