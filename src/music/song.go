package music

import (
	"sort"
	"strconv"
)

// Song is the queue-facing view of a set: the same metadata with variants
// normalized into one canonical ordered slice. The persisted file keys
// variants by id; everything above the store boundary works with this shape.
type Song struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Artist         string            `json:"artist"`
	Creator        string            `json:"creator"`
	Covers         map[string]string `json:"covers"`
	BPM            float64           `json:"bpm"`
	Status         string            `json:"status"`
	Tags           string            `json:"tags"`
	CreatedAt      int64             `json:"created_at"`
	MultipleAudios bool              `json:"multipleAudios,omitempty"`
	PreviewURL     string            `json:"preview_url,omitempty"`
	Variants       []Variant         `json:"variants"`
}

// SongFromSet normalizes a set into a Song, ordering variants by numeric id.
func SongFromSet(s *Set) Song {
	song := Song{
		ID:             s.ID,
		Title:          s.Title,
		Artist:         s.Artist,
		Creator:        s.Creator,
		Covers:         s.Covers,
		BPM:            s.BPM,
		Status:         s.Status,
		Tags:           s.Tags,
		CreatedAt:      s.CreatedAt,
		MultipleAudios: s.MultipleAudios,
		PreviewURL:     s.PreviewURL,
	}
	for _, v := range s.Beatmaps {
		song.Variants = append(song.Variants, *v)
	}
	sort.Slice(song.Variants, func(i, j int) bool {
		a, _ := strconv.Atoi(song.Variants[i].ID)
		b, _ := strconv.Atoi(song.Variants[j].ID)
		return a < b
	})
	return song
}

// SongFromDescriptor builds a Song straight from a catalog descriptor, for
// queue entries that were never downloaded (preview playback).
func SongFromDescriptor(d *SetDescriptor) Song {
	set := NewSet(d)
	set.Merge(d)
	return SongFromSet(set)
}

// PrimaryVariant returns the first variant in canonical order, or nil for a
// set with no variants.
func (s *Song) PrimaryVariant() *Variant {
	if len(s.Variants) == 0 {
		return nil
	}
	return &s.Variants[0]
}

// Descriptor rebuilds the remote-descriptor shape from a Song, used when a
// queue entry needs to be handed back to the download pipeline.
func (s *Song) Descriptor() *SetDescriptor {
	id, _ := strconv.Atoi(s.ID)
	d := &SetDescriptor{
		ID:         id,
		Title:      s.Title,
		Artist:     s.Artist,
		Creator:    s.Creator,
		Covers:     s.Covers,
		BPM:        s.BPM,
		Status:     s.Status,
		Tags:       s.Tags,
		PreviewURL: s.PreviewURL,
	}
	for _, v := range s.Variants {
		vid, _ := strconv.Atoi(v.ID)
		d.Beatmaps = append(d.Beatmaps, VariantDescriptor{
			ID:               vid,
			Version:          v.Version,
			DifficultyRating: v.DifficultyRating,
			Mode:             v.Mode,
			TotalLength:      v.TotalLength,
		})
	}
	return d
}
