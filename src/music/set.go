package music

import (
	"strconv"
	"time"
)

// Set represents a beatmap set: a bundle of one or more playable variants
// sharing title, artist and cover art. Sets are keyed by their catalog id
// and persisted in the metadata store once downloaded or refreshed.
type Set struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Artist         string              `json:"artist"`
	Creator        string              `json:"creator"`
	Covers         map[string]string   `json:"covers"`
	BPM            float64             `json:"bpm"`
	Status         string              `json:"status"`
	Tags           string              `json:"tags"`
	CreatedAt      int64               `json:"created_at"`
	Beatmaps       map[string]*Variant `json:"beatmaps"`
	MultipleAudios bool                `json:"multipleAudios,omitempty"`
	PreviewURL     string              `json:"preview_url,omitempty"`
}

// Variant is one playable, audio-bearing member of a set.
type Variant struct {
	ID               string  `json:"id"`
	Version          string  `json:"version"`
	DifficultyRating float64 `json:"difficulty_rating"`
	Mode             string  `json:"mode"`
	TotalLength      int     `json:"total_length"`
	Downloaded       bool    `json:"downloaded"`
	AudioFile        string  `json:"audioFile,omitempty"`
}

// SetDescriptor is the shape the remote catalog returns for a set. Variants
// arrive as an ordered list here; the store keys them by id on merge.
type SetDescriptor struct {
	ID         int                 `json:"id"`
	Title      string              `json:"title"`
	Artist     string              `json:"artist"`
	Creator    string              `json:"creator"`
	Covers     map[string]string   `json:"covers"`
	BPM        float64             `json:"bpm"`
	Status     string              `json:"status"`
	Tags       string              `json:"tags"`
	PreviewURL string              `json:"preview_url"`
	Beatmaps   []VariantDescriptor `json:"beatmaps"`
}

// VariantDescriptor is the remote catalog's per-variant detail.
type VariantDescriptor struct {
	ID               int     `json:"id"`
	Version          string  `json:"version"`
	DifficultyRating float64 `json:"difficulty_rating"`
	Mode             string  `json:"mode"`
	TotalLength      int     `json:"total_length"`
}

// SetID returns the descriptor's id in the string form the store keys by.
func (d *SetDescriptor) SetID() string {
	return strconv.Itoa(d.ID)
}

// NewSet builds a fresh Set from a remote descriptor. Variants start
// not-downloaded; Merge and RecordDownload fill them in.
func NewSet(d *SetDescriptor) *Set {
	return &Set{
		ID:         d.SetID(),
		Title:      d.Title,
		Artist:     d.Artist,
		Creator:    d.Creator,
		Covers:     d.Covers,
		BPM:        d.BPM,
		Status:     d.Status,
		Tags:       d.Tags,
		PreviewURL: d.PreviewURL,
		Beatmaps:   make(map[string]*Variant),
		CreatedAt:  time.Now().UnixMilli(),
	}
}

// Merge refreshes the set's metadata from a remote descriptor. Non-empty
// remote values win, existing values are kept otherwise. The Downloaded flag
// and AudioFile of existing variants are sticky: a metadata-only refresh
// never resets them.
func (s *Set) Merge(d *SetDescriptor) {
	if d.Title != "" {
		s.Title = d.Title
	}
	if d.Artist != "" {
		s.Artist = d.Artist
	}
	if d.Creator != "" {
		s.Creator = d.Creator
	}
	if d.Status != "" {
		s.Status = d.Status
	}
	if d.Tags != "" {
		s.Tags = d.Tags
	}
	if len(d.Covers) > 0 {
		s.Covers = d.Covers
	}
	if d.BPM != 0 {
		s.BPM = d.BPM
	}
	if d.PreviewURL != "" {
		s.PreviewURL = d.PreviewURL
	}
	if s.Beatmaps == nil {
		s.Beatmaps = make(map[string]*Variant)
	}
	for _, vd := range d.Beatmaps {
		id := strconv.Itoa(vd.ID)
		existing := s.Beatmaps[id]
		v := &Variant{
			ID:               id,
			Version:          vd.Version,
			DifficultyRating: vd.DifficultyRating,
			Mode:             vd.Mode,
			TotalLength:      vd.TotalLength,
		}
		if existing != nil {
			v.Downloaded = existing.Downloaded
			v.AudioFile = existing.AudioFile
		}
		s.Beatmaps[id] = v
	}
}

// Variant returns the variant with the given id, or nil.
func (s *Set) Variant(id string) *Variant {
	if s.Beatmaps == nil {
		return nil
	}
	return s.Beatmaps[id]
}

// Clone returns a deep copy so callers can hand sets across goroutines
// without sharing the variant map.
func (s *Set) Clone() *Set {
	cp := *s
	cp.Beatmaps = make(map[string]*Variant, len(s.Beatmaps))
	for id, v := range s.Beatmaps {
		vc := *v
		cp.Beatmaps[id] = &vc
	}
	if s.Covers != nil {
		cp.Covers = make(map[string]string, len(s.Covers))
		for k, v := range s.Covers {
			cp.Covers[k] = v
		}
	}
	return &cp
}
