package playback

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/stamerd/stosufy/src/features/metrics"
	"github.com/stamerd/stosufy/src/features/presence"
	"github.com/stamerd/stosufy/src/infra/settings"
	"github.com/stamerd/stosufy/src/music"
)

// Preferences is the durable slice of playback state: shuffle flag and the
// last committed queue position.
type Preferences interface {
	Shuffle() bool
	SetShuffle(on bool) error
	LastQueue() (*settings.QueueSnapshot, bool)
	SaveLastQueue(snap *settings.QueueSnapshot)
	ClearLastQueue()
}

// State is the published queue snapshot. CurrentIndex is -1 only while the
// queue is empty; otherwise it stays inside [0, len(Sequence)).
type State struct {
	CurrentIndex int          `json:"currentIndex"`
	Sequence     []music.Song `json:"sequence"`
	SourceType   SourceType   `json:"sourceType"`
	CollectionID string       `json:"collectionId,omitempty"`
	Playing      bool         `json:"playing"`
	Shuffled     bool         `json:"shuffled"`
}

// CurrentSongView mirrors the entry at CurrentIndex for display surfaces.
type CurrentSongView struct {
	Song      *music.Song `json:"song,omitempty"`
	IsPlaying bool        `json:"isPlaying"`
}

// Service is the queue state machine. All mutations are serialized; a
// mutation that is still resolving audio when a newer one commits has its
// result discarded.
type Service struct {
	engine   AudioEngine
	resolver Resolver
	prefs    Preferences
	notifier presence.Notifier

	mu        sync.Mutex
	state     State
	handle    AudioHandle
	canonical []music.Song
	gen       uint64
	subs      []chan State

	skipMu   sync.Mutex
	skipping bool
}

func NewService(engine AudioEngine, resolver Resolver, prefs Preferences, notifier presence.Notifier) *Service {
	return &Service{
		engine:   engine,
		resolver: resolver,
		prefs:    prefs,
		notifier: notifier,
		state:    State{CurrentIndex: -1},
	}
}

// State returns a copy of the current queue snapshot.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// CurrentSong returns the display view of the active entry.
func (s *Service) CurrentSong() CurrentSongView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentIndex < 0 || s.state.CurrentIndex >= len(s.state.Sequence) {
		return CurrentSongView{}
	}
	song := s.state.Sequence[s.state.CurrentIndex]
	return CurrentSongView{Song: &song, IsPlaying: s.state.Playing}
}

// Subscribe returns a channel receiving a snapshot after every committed
// mutation. Slow subscribers miss snapshots rather than block the queue.
func (s *Service) Subscribe() <-chan State {
	ch := make(chan State, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// SetQueue replaces the whole queue. Playback of the previous queue stops
// first. resumeOffset seeks into the resolved audio when it is long enough;
// a zero offset with the shuffle preference on reshuffles the new queue.
func (s *Service) SetQueue(ctx context.Context, index int, sequence []music.Song, sourceType SourceType, collectionID string, autoplay bool, resumeOffset time.Duration) error {
	s.mu.Lock()
	s.stopLocked(false)
	s.canonical = append([]music.Song(nil), sequence...)
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	err := s.resolveAndCommit(ctx, gen, commit{
		index:        index,
		sequence:     sequence,
		sourceType:   sourceType,
		collectionID: collectionID,
		autoplay:     autoplay,
		resumeOffset: resumeOffset,
		shuffled:     false,
	})
	if err != nil {
		return err
	}

	if s.prefs.Shuffle() && resumeOffset == 0 {
		return s.applyShuffle(ctx)
	}
	return nil
}

// UpdateQueue partially updates the queue after edits or deletions. A nil
// sequence keeps the current one. Failed entries are skipped via bounded
// index recovery.
func (s *Service) UpdateQueue(ctx context.Context, index int, sequence []music.Song, sourceType SourceType, collectionID string) error {
	s.mu.Lock()
	if sequence == nil {
		sequence = s.state.Sequence
	}
	if sourceType == "" {
		sourceType = s.state.SourceType
	}
	if collectionID == "" {
		collectionID = s.state.CollectionID
	}
	autoplay := s.state.Playing
	shuffled := s.state.Shuffled
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	return s.resolveAndCommit(ctx, gen, commit{
		index:        index,
		sequence:     sequence,
		sourceType:   sourceType,
		collectionID: collectionID,
		autoplay:     autoplay,
		shuffled:     shuffled,
	})
}

// Stop pauses audio output. Unless pauseOnly, the queue is also marked
// not-playing. The presence notification is always cleared.
func (s *Service) Stop(pauseOnly bool) {
	s.mu.Lock()
	s.stopLocked(pauseOnly)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	if err := s.notifier.Clear(); err != nil {
		slog.Warn("Failed to clear presence", "error", err)
	}
}

// TogglePlay flips between playing and paused.
func (s *Service) TogglePlay() {
	s.mu.Lock()
	if s.state.Playing {
		s.mu.Unlock()
		s.Stop(false)
		return
	}
	if s.handle == nil || s.state.CurrentIndex < 0 {
		s.mu.Unlock()
		return
	}
	s.handle.Play()
	s.state.Playing = true
	song := s.state.Sequence[s.state.CurrentIndex]
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	if err := s.notifier.NowPlaying(song.Title, song.Artist); err != nil {
		slog.Warn("Failed to publish presence", "error", err)
	}
}

// SkipForward advances to the next entry, wrapping past the end. Re-entrant
// calls while a skip is resolving are ignored.
func (s *Service) SkipForward(ctx context.Context) error {
	if !s.beginSkip() {
		return nil
	}
	defer s.endSkip()
	metrics.QueueSkips.WithLabelValues("forward").Inc()

	s.mu.Lock()
	if s.state.CurrentIndex < 0 || len(s.state.Sequence) == 0 {
		s.mu.Unlock()
		return nil
	}
	next := s.state.CurrentIndex + 1
	if next >= len(s.state.Sequence) {
		next = 0
	}
	s.mu.Unlock()

	return s.UpdateQueue(ctx, next, nil, "", "")
}

// SkipBackward steps to the previous entry. More than two seconds into the
// current entry it rewinds instead; at index zero it does nothing.
func (s *Service) SkipBackward(ctx context.Context) error {
	if !s.beginSkip() {
		return nil
	}
	defer s.endSkip()
	metrics.QueueSkips.WithLabelValues("backward").Inc()

	s.mu.Lock()
	if s.state.CurrentIndex < 0 || len(s.state.Sequence) == 0 {
		s.mu.Unlock()
		return nil
	}
	if s.handle != nil && s.handle.Position() > 2*time.Second {
		handle := s.handle
		s.mu.Unlock()
		return handle.Seek(0)
	}
	if s.state.CurrentIndex == 0 {
		s.mu.Unlock()
		return nil
	}
	prev := s.state.CurrentIndex - 1
	s.mu.Unlock()

	return s.UpdateQueue(ctx, prev, nil, "", "")
}

// Shuffle applies the current shuffle preference to the queue: on, a random
// permutation with the playing entry pinned first; off, the canonical order
// with the index relocated to the playing entry.
func (s *Service) Shuffle(ctx context.Context) error {
	return s.applyShuffle(ctx)
}

func (s *Service) applyShuffle(ctx context.Context) error {
	s.mu.Lock()
	if s.state.CurrentIndex < 0 || len(s.state.Sequence) == 0 {
		s.mu.Unlock()
		return nil
	}
	current := s.state.Sequence[s.state.CurrentIndex]
	var next []music.Song
	var index int
	if s.prefs.Shuffle() {
		rest := make([]music.Song, 0, len(s.canonical))
		for _, song := range s.canonical {
			if song.ID != current.ID {
				rest = append(rest, song)
			}
		}
		rand.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		next = append([]music.Song{current}, rest...)
		index = 0
	} else {
		next = append([]music.Song(nil), s.canonical...)
		index = 0
		for i, song := range next {
			if song.ID == current.ID {
				index = i
				break
			}
		}
	}
	shuffled := s.prefs.Shuffle()
	sourceType := s.state.SourceType
	collectionID := s.state.CollectionID
	autoplay := s.state.Playing
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	return s.resolveAndCommit(ctx, gen, commit{
		index:        index,
		sequence:     next,
		sourceType:   sourceType,
		collectionID: collectionID,
		autoplay:     autoplay,
		shuffled:     shuffled,
	})
}

// Run mirrors the playback position into durable preferences until the
// context ends.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state.Playing && s.handle != nil && s.state.CurrentIndex >= 0 {
				s.prefs.SaveLastQueue(&settings.QueueSnapshot{
					Index:         s.state.CurrentIndex,
					Source:        string(s.state.SourceType),
					CollectionID:  s.state.CollectionID,
					OffsetSeconds: s.handle.Position().Seconds(),
				})
			}
			s.mu.Unlock()
		}
	}
}

type commit struct {
	index        int
	sequence     []music.Song
	sourceType   SourceType
	collectionID string
	autoplay     bool
	resumeOffset time.Duration
	shuffled     bool
}

// resolveAndCommit finds a playable entry starting at c.index, opens its
// audio, and publishes the new state. Entries that fail to resolve are
// skipped: an index at or past the committed one advances (wrapping to 0),
// an earlier one steps back (stopping at 0). Every index is tried at most
// once before giving up.
func (s *Service) resolveAndCommit(ctx context.Context, gen uint64, c commit) error {
	if len(c.sequence) == 0 {
		s.commitEmpty(gen, c)
		return nil
	}
	if c.index < 0 {
		c.index = 0
	}
	if c.index >= len(c.sequence) {
		c.index = len(c.sequence) - 1
	}

	s.mu.Lock()
	committed := s.state.CurrentIndex
	s.mu.Unlock()
	if committed < 0 {
		committed = 0
	}

	index := c.index
	visited := make(map[int]bool, len(c.sequence))
	for {
		if visited[index] {
			return ErrNoPlayableEntry
		}
		visited[index] = true

		handle, err := s.open(ctx, gen, c.sequence[index], c.sourceType)
		if err == nil {
			return s.commitResolved(gen, c, index, handle)
		}
		slog.Warn("Queue entry failed to resolve", "setID", c.sequence[index].ID, "index", index, "error", err)
		metrics.PlaybackFailures.Inc()

		if len(visited) == len(c.sequence) {
			return ErrNoPlayableEntry
		}
		if index >= committed {
			index++
			if index >= len(c.sequence) {
				index = 0
			}
		} else {
			index--
			if index < 0 {
				index = 0
			}
		}
	}
}

func (s *Service) open(ctx context.Context, gen uint64, song music.Song, sourceType SourceType) (AudioHandle, error) {
	source, err := s.resolver.Resolve(ctx, song, sourceType)
	if err != nil {
		return nil, err
	}
	return s.engine.Open(ctx, source, func() { s.onFinished(gen) })
}

func (s *Service) commitResolved(gen uint64, c commit, index int, handle AudioHandle) error {
	if c.resumeOffset > 0 && handle.Duration() > c.resumeOffset {
		if err := handle.Seek(c.resumeOffset); err != nil {
			slog.Warn("Resume seek failed", "offset", c.resumeOffset, "error", err)
		}
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		handle.Close()
		return nil
	}
	if s.handle != nil && s.handle != handle {
		s.handle.Close()
	}
	s.handle = handle
	s.state = State{
		CurrentIndex: index,
		Sequence:     c.sequence,
		SourceType:   c.sourceType,
		CollectionID: c.collectionID,
		Playing:      c.autoplay,
		Shuffled:     c.shuffled,
	}
	song := c.sequence[index]
	s.prefs.SaveLastQueue(&settings.QueueSnapshot{
		Index:         index,
		Source:        string(c.sourceType),
		CollectionID:  c.collectionID,
		OffsetSeconds: c.resumeOffset.Seconds(),
	})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if c.autoplay {
		handle.Play()
		if err := s.notifier.NowPlaying(song.Title, song.Artist); err != nil {
			slog.Warn("Failed to publish presence", "error", err)
		}
	}
	s.publish(snap)
	return nil
}

func (s *Service) commitEmpty(gen uint64, c commit) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state = State{
		CurrentIndex: -1,
		SourceType:   c.sourceType,
		CollectionID: c.collectionID,
	}
	s.prefs.ClearLastQueue()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// onFinished advances the queue when a stream runs out naturally. The last
// entry ends playback instead of wrapping.
func (s *Service) onFinished(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	index := s.state.CurrentIndex
	last := len(s.state.Sequence) - 1
	s.mu.Unlock()

	if index < 0 {
		return
	}
	if index >= last {
		s.Stop(false)
		return
	}
	go func() {
		if err := s.UpdateQueue(context.Background(), index+1, nil, "", ""); err != nil {
			slog.Warn("Advance after track end failed", "error", err)
		}
	}()
}

func (s *Service) stopLocked(pauseOnly bool) {
	if s.handle != nil {
		s.handle.Pause()
	}
	if !pauseOnly {
		s.state.Playing = false
	}
}

func (s *Service) snapshotLocked() State {
	snap := s.state
	snap.Sequence = append([]music.Song(nil), s.state.Sequence...)
	return snap
}

func (s *Service) publish(snap State) {
	s.mu.Lock()
	subs := append([]chan State(nil), s.subs...)
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Service) beginSkip() bool {
	s.skipMu.Lock()
	defer s.skipMu.Unlock()
	if s.skipping {
		return false
	}
	s.skipping = true
	return true
}

func (s *Service) endSkip() {
	s.skipMu.Lock()
	s.skipping = false
	s.skipMu.Unlock()
}
