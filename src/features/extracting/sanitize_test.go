package extracting

import (
	"strings"
	"testing"
)

func TestSanitizeReplacesUnsafeCharacters(t *testing.T) {
	got := Sanitize(`audio/cool?song*name".mp3`)
	for _, c := range `\/:*?"<>|[]` {
		if strings.ContainsRune(got, c) {
			t.Errorf("sanitized name %q still contains %q", got, c)
		}
	}
}

func TestSanitizeNormalizesUnicodeDashes(t *testing.T) {
	got := Sanitize("song – name.mp3")
	if got != "song - name.mp3" {
		t.Errorf("expected unicode dash to become ASCII hyphen, got %q", got)
	}
}

func TestSanitizeReplacesNonASCIIRuns(t *testing.T) {
	got := Sanitize("曲名テスト.mp3")
	if got != "_.mp3" {
		t.Errorf("expected non-ASCII run collapsed to single underscore, got %q", got)
	}
}

func TestSanitizeCapsLengthPreservingExtension(t *testing.T) {
	long := strings.Repeat("a", 400) + ".ogg"
	got := Sanitize(long)
	if len(got) > 150 {
		t.Errorf("sanitized name length %d exceeds 150", len(got))
	}
	if !strings.HasSuffix(got, ".ogg") {
		t.Errorf("extension lost in %q", got)
	}
}

func TestSanitizeCollapsesMixedRuns(t *testing.T) {
	got := Sanitize("a__--__b.wav")
	if got != "a_b.wav" {
		t.Errorf("expected runs collapsed, got %q", got)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`audio/cool?song*name".mp3`,
		"song – name.mp3",
		"曲名テスト full version.ogg",
		strings.Repeat("x", 300) + ".wav",
		"a__--__b.mp3",
		"already-clean.mp3",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
