package transcoding

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/stamerd/stosufy/src/features/config"
	"github.com/stamerd/stosufy/src/features/metrics"
)

// Error wraps an encoder invocation failure.
type Error struct {
	Source string
	Output string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcode of %s failed: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Service converts raw audio files to Opus at a fixed bitrate by invoking
// ffmpeg. The encoder writes to a temporary path that is renamed onto the
// destination only after a successful exit, so a failed run never leaves a
// half-written asset behind.
type Service struct {
	config *config.Manager
}

// NewService creates a new transcoding service.
func NewService(cfg *config.Manager) *Service {
	return &Service{config: cfg}
}

// Args builds the encoder argument list for one conversion.
func (s *Service) Args(src, dst string) []string {
	bitrate := s.config.Get().Transcode.Bitrate
	if bitrate == "" {
		bitrate = "128k"
	}
	return []string{
		"-y",
		"-i", src,
		"-c:a", "libopus",
		"-b:a", bitrate,
		"-application", "audio",
		"-vn",
		// The encoder writes to a ".part" temp path, so the output muxer
		// cannot be guessed from the filename extension.
		"-f", "ogg",
		dst,
	}
}

// Transcode converts src into an Opus file at dst.
func (s *Service) Transcode(ctx context.Context, src, dst string) error {
	ffmpeg := s.config.Get().Transcode.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpeg); err != nil {
		return &Error{Source: src, Err: fmt.Errorf("ffmpeg not found. Please install it:\n"+
			"  Ubuntu/Debian: sudo apt-get install ffmpeg\n"+
			"  macOS: brew install ffmpeg\n"+
			"  %w", err)}
	}

	tmp := dst + ".part"
	defer os.Remove(tmp)

	start := time.Now()
	cmd := exec.CommandContext(ctx, ffmpeg, s.Args(src, tmp)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &Error{Source: src, Output: lastLines(string(output), 5), Err: err}
	}

	if err := os.Rename(tmp, dst); err != nil {
		return &Error{Source: src, Err: fmt.Errorf("failed to move encoded file into place: %w", err)}
	}

	metrics.TranscodeDuration.Observe(time.Since(start).Seconds())
	slog.Debug("Transcoded audio", "src", src, "dst", dst, "took", time.Since(start).String())
	return nil
}

// lastLines keeps the tail of the encoder output, which is where ffmpeg
// prints the actual failure reason.
func lastLines(out string, n int) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
