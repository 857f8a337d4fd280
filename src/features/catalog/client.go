package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/stamerd/stosufy/src/features/auth"
	"github.com/stamerd/stosufy/src/features/config"
	"github.com/stamerd/stosufy/src/music"
)

// SearchPage is one page of catalog search results.
type SearchPage struct {
	Beatmapsets  []music.SetDescriptor `json:"beatmapsets"`
	CursorString string                `json:"cursor_string"`
	Total        int                   `json:"total"`
}

// Client queries the remote beatmap catalog: full-text search and per-variant
// detail lookups.
type Client struct {
	config *config.Manager
	auth   *auth.Service
	http   *http.Client
}

// NewClient creates a new catalog client.
func NewClient(cfg *config.Manager, authService *auth.Service) *Client {
	return &Client{
		config: cfg,
		auth:   authService,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Search runs a catalog search, resuming from cursor when non-empty.
func (c *Client) Search(ctx context.Context, query, cursor string) (*SearchPage, error) {
	base := c.config.Get().Catalog.BaseURL
	endpoint := fmt.Sprintf("%s/api/v2/beatmapsets/search?q=%s&cursor_string=%s",
		base, url.QueryEscape(query), url.QueryEscape(cursor))

	var page SearchPage
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	return &page, nil
}

// Lookup fetches per-variant catalog details for the given variant ids,
// chunking requests so no single call carries more than the configured batch
// size (the remote caps at 50 ids per call).
func (c *Client) Lookup(ctx context.Context, variantIDs []string) ([]music.VariantDescriptor, error) {
	batchSize := c.config.Get().Catalog.BatchSize
	if batchSize <= 0 || batchSize > 50 {
		batchSize = 50
	}

	var all []music.VariantDescriptor
	for start := 0; start < len(variantIDs); start += batchSize {
		end := start + batchSize
		if end > len(variantIDs) {
			end = len(variantIDs)
		}

		values := url.Values{}
		for _, id := range variantIDs[start:end] {
			values.Add("ids[]", id)
		}
		endpoint := fmt.Sprintf("%s/api/v2/beatmaps?%s", c.config.Get().Catalog.BaseURL, values.Encode())

		var batch struct {
			Beatmaps []music.VariantDescriptor `json:"beatmaps"`
		}
		if err := c.getJSON(ctx, endpoint, &batch); err != nil {
			return nil, fmt.Errorf("variant lookup failed: %w", err)
		}
		all = append(all, batch.Beatmaps...)
	}
	return all, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.auth.Credentials().AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
