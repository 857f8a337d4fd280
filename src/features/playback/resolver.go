package playback

import (
	"context"
	"fmt"

	"github.com/stamerd/stosufy/src/features/auth"
	"github.com/stamerd/stosufy/src/features/downloading"
	"github.com/stamerd/stosufy/src/music"
)

// assetResolver maps queue entries onto playable sources: the catalog
// preview URL for preview queues, the locally cached asset (downloading it
// first when needed) for collection queues.
type assetResolver struct {
	downloads *downloading.Service
	auth      *auth.Service
	library   music.Library
}

// NewResolver builds the production resolver.
func NewResolver(downloads *downloading.Service, authService *auth.Service, library music.Library) Resolver {
	return &assetResolver{downloads: downloads, auth: authService, library: library}
}

func (r *assetResolver) Resolve(ctx context.Context, song music.Song, sourceType SourceType) (string, error) {
	if sourceType == SourcePreview {
		if song.PreviewURL == "" {
			return "", fmt.Errorf("set %s has no preview stream", song.ID)
		}
		return song.PreviewURL, nil
	}

	variant := song.PrimaryVariant()
	if variant == nil {
		return "", fmt.Errorf("set %s has no variants", song.ID)
	}

	if path, ok := r.library.CachedAsset(song.ID, variant.ID); ok {
		return path, nil
	}

	if _, err := r.downloads.RequestAsset(ctx, song.Descriptor(), variant.ID, r.auth.Credentials()); err != nil {
		return "", err
	}
	path, ok := r.library.CachedAsset(song.ID, variant.ID)
	if !ok {
		return "", fmt.Errorf("asset for set %s variant %s missing after download", song.ID, variant.ID)
	}
	return path, nil
}
