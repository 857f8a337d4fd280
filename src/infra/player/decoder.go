package player

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// decode picks a decoder from the source extension. Cached assets are Ogg
// files, catalog previews are MP3 streams.
func decode(r io.ReadSeekCloser, source string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(strippedPath(source))) {
	case ".opus", ".ogg":
		return vorbis.Decode(r)
	case ".wav":
		return wav.Decode(r)
	case ".flac":
		return flac.Decode(r)
	default:
		return mp3.Decode(r)
	}
}

// strippedPath drops a URL query so the extension check sees the real name.
func strippedPath(source string) string {
	if i := strings.IndexByte(source, '?'); i >= 0 {
		return source[:i]
	}
	return source
}
