package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stamerd/stosufy/src/features/playback"
	"github.com/stamerd/stosufy/src/features/presence"
	"github.com/stamerd/stosufy/src/infra/settings"
	"github.com/stamerd/stosufy/src/music"
)

type fakeLibrary struct {
	sets    map[string]*music.Set
	deleted []string
	ready   chan struct{}
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{sets: map[string]*music.Set{}, ready: make(chan struct{})}
}

func (f *fakeLibrary) Get(setID string) (*music.Set, bool) {
	set, ok := f.sets[setID]
	return set, ok
}

func (f *fakeLibrary) Songs() []music.Song { return nil }

func (f *fakeLibrary) CachedAsset(setID, variantID string) (string, bool) { return "", false }

func (f *fakeLibrary) Merge(d *music.SetDescriptor) {}

func (f *fakeLibrary) RecordDownload(d *music.SetDescriptor, assetPath string, multipleAudios bool) {
}

func (f *fakeLibrary) MarkAssetMissing(assetPath string) {}

func (f *fakeLibrary) Delete(setID string) error {
	if _, ok := f.sets[setID]; !ok {
		return errors.New("unknown set")
	}
	delete(f.sets, setID)
	f.deleted = append(f.deleted, setID)
	return nil
}

func (f *fakeLibrary) Subscribe() <-chan struct{} { return make(chan struct{}) }

func (f *fakeLibrary) Ready() <-chan struct{} { return f.ready }

type stubHandle struct{}

func (h *stubHandle) Play() {}

func (h *stubHandle) Pause() {}

func (h *stubHandle) Seek(to time.Duration) error { return nil }

func (h *stubHandle) Position() time.Duration { return 0 }

func (h *stubHandle) Duration() time.Duration { return 3 * time.Minute }

func (h *stubHandle) Close() error { return nil }

type stubEngine struct{}

func (e *stubEngine) Open(ctx context.Context, source string, onFinished func()) (playback.AudioHandle, error) {
	return &stubHandle{}, nil
}

func (e *stubEngine) SetVolume(level float64) {}

type stubResolver struct{}

func (r *stubResolver) Resolve(ctx context.Context, song music.Song, sourceType playback.SourceType) (string, error) {
	return "src-" + song.ID, nil
}

type stubPrefs struct {
	cleared bool
}

func (p *stubPrefs) Shuffle() bool { return false }

func (p *stubPrefs) SetShuffle(on bool) error { return nil }

func (p *stubPrefs) LastQueue() (*settings.QueueSnapshot, bool) { return nil, false }

func (p *stubPrefs) SaveLastQueue(snap *settings.QueueSnapshot) {}

func (p *stubPrefs) ClearLastQueue() { p.cleared = true }

func song(id string) music.Song {
	return music.Song{ID: id, Title: "title " + id, Artist: "artist " + id}
}

func newFixture(t *testing.T, ids ...string) (*Service, *fakeLibrary, *playback.Service) {
	t.Helper()
	lib := newFakeLibrary()
	queue := playback.NewService(&stubEngine{}, &stubResolver{}, &stubPrefs{}, &presence.LogNotifier{})

	var seq []music.Song
	for _, id := range ids {
		lib.sets[id] = &music.Set{ID: id}
		seq = append(seq, song(id))
	}
	if len(seq) > 0 {
		if err := queue.SetQueue(context.Background(), 2, seq, playback.SourceCollection, "", false, 0); err != nil {
			t.Fatalf("failed to seed queue: %v", err)
		}
	}
	return NewService(lib, queue), lib, queue
}

func TestDeleteBeforePlayingIndexShiftsIndex(t *testing.T) {
	svc, _, queue := newFixture(t, "a", "b", "c", "d", "e")

	if err := svc.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	state := queue.State()
	if len(state.Sequence) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(state.Sequence))
	}
	if state.CurrentIndex != 1 {
		t.Errorf("expected index shifted to 1, got %d", state.CurrentIndex)
	}
	if state.Sequence[state.CurrentIndex].ID != "c" {
		t.Errorf("expected c to stay current, got %s", state.Sequence[state.CurrentIndex].ID)
	}
}

func TestDeleteAtPlayingIndexAdvances(t *testing.T) {
	svc, _, queue := newFixture(t, "a", "b", "c", "d", "e")

	if err := svc.Delete(context.Background(), "c"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	state := queue.State()
	if state.CurrentIndex != 2 {
		t.Errorf("expected index to stay at 2, got %d", state.CurrentIndex)
	}
	if state.Sequence[state.CurrentIndex].ID != "d" {
		t.Errorf("expected d to take over, got %s", state.Sequence[state.CurrentIndex].ID)
	}
}

func TestDeletePlayingLastEntryStepsBack(t *testing.T) {
	lib := newFakeLibrary()
	queue := playback.NewService(&stubEngine{}, &stubResolver{}, &stubPrefs{}, &presence.LogNotifier{})
	seq := []music.Song{song("a"), song("b"), song("c")}
	for _, s := range seq {
		lib.sets[s.ID] = &music.Set{ID: s.ID}
	}
	if err := queue.SetQueue(context.Background(), 2, seq, playback.SourceCollection, "", false, 0); err != nil {
		t.Fatalf("failed to seed queue: %v", err)
	}
	svc := NewService(lib, queue)

	if err := svc.Delete(context.Background(), "c"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	state := queue.State()
	if state.CurrentIndex != 1 {
		t.Errorf("expected index to step back to 1, got %d", state.CurrentIndex)
	}
	if state.Sequence[state.CurrentIndex].ID != "b" {
		t.Errorf("expected b to take over, got %s", state.Sequence[state.CurrentIndex].ID)
	}
}

func TestDeleteAfterPlayingIndexKeepsIndex(t *testing.T) {
	svc, _, queue := newFixture(t, "a", "b", "c", "d", "e")

	if err := svc.Delete(context.Background(), "e"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	state := queue.State()
	if state.CurrentIndex != 2 {
		t.Errorf("expected index unchanged at 2, got %d", state.CurrentIndex)
	}
	if state.Sequence[state.CurrentIndex].ID != "c" {
		t.Errorf("expected c to stay current, got %s", state.Sequence[state.CurrentIndex].ID)
	}
}

func TestDeleteLastRemainingEntryEmptiesQueue(t *testing.T) {
	lib := newFakeLibrary()
	queue := playback.NewService(&stubEngine{}, &stubResolver{}, &stubPrefs{}, &presence.LogNotifier{})
	lib.sets["a"] = &music.Set{ID: "a"}
	if err := queue.SetQueue(context.Background(), 0, []music.Song{song("a")}, playback.SourceCollection, "", false, 0); err != nil {
		t.Fatalf("failed to seed queue: %v", err)
	}
	svc := NewService(lib, queue)

	if err := svc.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	state := queue.State()
	if state.CurrentIndex != -1 || len(state.Sequence) != 0 {
		t.Errorf("expected empty queue, got index %d with %d entries", state.CurrentIndex, len(state.Sequence))
	}
}

func TestDeleteUnqueuedSetLeavesQueueAlone(t *testing.T) {
	svc, lib, queue := newFixture(t, "a", "b", "c")
	lib.sets["z"] = &music.Set{ID: "z"}

	before := queue.State()
	if err := svc.Delete(context.Background(), "z"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	after := queue.State()

	if after.CurrentIndex != before.CurrentIndex || len(after.Sequence) != len(before.Sequence) {
		t.Errorf("queue changed: before %+v after %+v", before, after)
	}
}

func TestDeleteUnknownSetReturnsError(t *testing.T) {
	svc, _, _ := newFixture(t, "a")
	if err := svc.Delete(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown set")
	}
}
