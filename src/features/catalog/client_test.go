package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stamerd/stosufy/src/features/auth"
	"github.com/stamerd/stosufy/src/features/config"
	"github.com/stamerd/stosufy/src/infra/settings"
	"github.com/stamerd/stosufy/src/music"
)

func newTestClient(t *testing.T, baseURL string, batchSize int) *Client {
	t.Helper()
	cfg := config.NewManager(&config.Config{
		Catalog: config.Catalog{BaseURL: baseURL, BatchSize: batchSize},
	})
	prefs, err := settings.New(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("failed to open settings: %v", err)
	}
	t.Cleanup(func() { prefs.Close() })
	return NewClient(cfg, auth.NewService(auth.NewClient(cfg), prefs))
}

func TestLookupChunksRequests(t *testing.T) {
	var requestSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query()["ids[]"]
		requestSizes = append(requestSizes, len(ids))

		var beatmaps []music.VariantDescriptor
		for _, id := range ids {
			n, _ := strconv.Atoi(id)
			beatmaps = append(beatmaps, music.VariantDescriptor{ID: n})
		}
		json.NewEncoder(w).Encode(map[string]any{"beatmaps": beatmaps})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 50)

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprint(i + 1)
	}
	variants, err := client.Lookup(context.Background(), ids)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if len(variants) != 120 {
		t.Errorf("expected 120 variants, got %d", len(variants))
	}
	if len(requestSizes) != 3 {
		t.Fatalf("expected 3 chunked requests, got %d", len(requestSizes))
	}
	for i, size := range requestSizes {
		if size > 50 {
			t.Errorf("request %d carried %d ids, cap is 50", i, size)
		}
	}
}

func TestLookupEmptyInput(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid", 50)
	variants, err := client.Lookup(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(variants) != 0 {
		t.Errorf("expected no variants, got %d", len(variants))
	}
}

func TestSearchPassesQueryAndCursor(t *testing.T) {
	var gotQuery, gotCursor string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCursor = r.URL.Query().Get("cursor_string")
		json.NewEncoder(w).Encode(SearchPage{CursorString: "next", Total: 1})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 50)
	page, err := client.Search(context.Background(), "artist song", "abc")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if gotQuery != "artist song" || gotCursor != "abc" {
		t.Errorf("query parameters not forwarded: q=%q cursor=%q", gotQuery, gotCursor)
	}
	if page.CursorString != "next" {
		t.Errorf("unexpected page %+v", page)
	}
}
