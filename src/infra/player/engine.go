// Package player renders audio through the system speaker.
package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
)

const mixerRate = beep.SampleRate(44100)

// Engine owns the speaker. One handle plays at a time; opening a new one
// silences the previous.
type Engine struct {
	initOnce sync.Once
	initErr  error

	mu     sync.Mutex
	level  float64
	active *Handle

	http *http.Client
}

func NewEngine() *Engine {
	return &Engine{
		level: 0.5,
		http:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// SetVolume adjusts the output level in [0, 1], applied live to the current
// handle.
func (e *Engine) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	e.mu.Lock()
	e.level = level
	active := e.active
	e.mu.Unlock()

	if active != nil {
		speaker.Lock()
		active.volume.Volume = level*2 - 1
		active.volume.Silent = level == 0
		speaker.Unlock()
	}
}

// Open loads a source (local file path or http URL), replaces any current
// playback, and returns a paused handle. onFinished fires once when the
// stream runs out on its own, never on Close.
func (e *Engine) Open(ctx context.Context, source string, onFinished func()) (*Handle, error) {
	e.initOnce.Do(func() {
		e.initErr = speaker.Init(mixerRate, mixerRate.N(time.Second/10))
	})
	if e.initErr != nil {
		return nil, fmt.Errorf("speaker init failed: %w", e.initErr)
	}

	data, err := e.read(ctx, source)
	if err != nil {
		return nil, err
	}

	streamer, format, err := decode(nopReadSeekCloser{bytes.NewReader(data)}, source)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", source, err)
	}

	e.mu.Lock()
	prev := e.active
	e.active = nil
	e.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	e.mu.Lock()
	h := &Handle{
		engine:   e,
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Paused: true},
		finished: onFinished,
	}
	h.ctrl.Streamer = beep.Seq(streamer, beep.Callback(h.fireFinished))
	h.volume = &effects.Volume{
		Streamer: h.ctrl,
		Base:     2,
		Volume:   e.level*2 - 1,
		Silent:   e.level == 0,
	}
	e.active = h
	e.mu.Unlock()

	var rendered beep.Streamer = h.volume
	if format.SampleRate != mixerRate {
		rendered = beep.Resample(4, format.SampleRate, mixerRate, h.volume)
	}
	speaker.Play(rendered)

	slog.Debug("Audio source opened", "source", source, "sampleRate", int(format.SampleRate))
	return h, nil
}

func (e *Engine) read(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := e.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch stream: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("stream fetch failed with status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}

// Handle controls one loaded stream.
type Handle struct {
	engine   *Engine
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	finished func()

	mu     sync.Mutex
	closed bool
}

func (h *Handle) Play() {
	speaker.Lock()
	h.ctrl.Paused = false
	speaker.Unlock()
}

func (h *Handle) Pause() {
	speaker.Lock()
	h.ctrl.Paused = true
	speaker.Unlock()
}

func (h *Handle) Seek(offset time.Duration) error {
	speaker.Lock()
	defer speaker.Unlock()
	return h.streamer.Seek(h.format.SampleRate.N(offset))
}

func (h *Handle) Position() time.Duration {
	speaker.Lock()
	n := h.streamer.Position()
	speaker.Unlock()
	return h.format.SampleRate.D(n)
}

func (h *Handle) Duration() time.Duration {
	speaker.Lock()
	n := h.streamer.Len()
	speaker.Unlock()
	return h.format.SampleRate.D(n)
}

// Close silences and releases the stream. Safe to call more than once.
// Only this handle's streamer is detached from the mixer, so closing a
// superseded handle cannot mute whichever one is currently committed.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	// A Ctrl with a nil source drains, which makes the mixer drop it.
	speaker.Lock()
	h.ctrl.Streamer = nil
	speaker.Unlock()

	h.engine.mu.Lock()
	if h.engine.active == h {
		h.engine.active = nil
	}
	h.engine.mu.Unlock()

	return h.streamer.Close()
}

func (h *Handle) fireFinished() {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed || h.finished == nil {
		return
	}
	// The callback runs while the mixer holds its lock; the handler must not
	// re-enter the speaker synchronously.
	go h.finished()
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }
