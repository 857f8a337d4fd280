package player

import (
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
)

type stubStreamer struct {
	closes int
	pos    int
	length int
}

func (s *stubStreamer) Stream(samples [][2]float64) (int, bool) { return 0, false }

func (s *stubStreamer) Err() error { return nil }

func (s *stubStreamer) Len() int { return s.length }

func (s *stubStreamer) Position() int { return s.pos }

func (s *stubStreamer) Seek(p int) error {
	s.pos = p
	return nil
}

func (s *stubStreamer) Close() error {
	s.closes++
	return nil
}

func newTestHandle(e *Engine) (*Handle, *stubStreamer) {
	st := &stubStreamer{length: 1000}
	h := &Handle{
		engine:   e,
		streamer: st,
		format:   beep.Format{SampleRate: mixerRate, NumChannels: 2, Precision: 2},
		ctrl:     &beep.Ctrl{Paused: true},
	}
	h.ctrl.Streamer = beep.Seq(st, beep.Callback(h.fireFinished))
	h.volume = &effects.Volume{Streamer: h.ctrl, Base: 2}
	return h, st
}

func TestCloseDetachesOnlyItsOwnStream(t *testing.T) {
	e := NewEngine()
	stale, _ := newTestHandle(e)
	current, _ := newTestHandle(e)
	e.active = current

	if err := stale.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if stale.ctrl.Streamer != nil {
		t.Error("closed handle still feeding the mixer")
	}
	if current.ctrl.Streamer == nil {
		t.Error("committed handle detached by a stale close")
	}
	if e.active != current {
		t.Error("engine lost its committed handle")
	}
}

func TestCloseActiveHandleReleasesEngineSlot(t *testing.T) {
	e := NewEngine()
	h, st := newTestHandle(e)
	e.active = h

	if err := h.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if e.active != nil {
		t.Error("engine still references the closed handle")
	}
	if st.closes != 1 {
		t.Errorf("expected one stream close, got %d", st.closes)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if st.closes != 1 {
		t.Error("underlying stream closed twice")
	}
}

func TestFinishedCallbackSuppressedAfterClose(t *testing.T) {
	e := NewEngine()
	h, _ := newTestHandle(e)
	finished := make(chan struct{}, 1)
	h.finished = func() { finished <- struct{}{} }

	if err := h.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	h.fireFinished()

	select {
	case <-finished:
		t.Error("finished callback fired after close")
	case <-time.After(50 * time.Millisecond):
	}
}
