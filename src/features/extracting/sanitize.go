package extracting

import (
	"path/filepath"
	"regexp"
)

// maxNameLength caps sanitized filenames, extension included.
const maxNameLength = 150

var (
	unsafeChars  = regexp.MustCompile(`[\\/:*?"<>|\[\]]`)
	unicodeDash  = regexp.MustCompile("[–—―‗†‡]")
	nonASCIIRuns = regexp.MustCompile(`[^\x00-\x7F]+`)
	mixedRuns    = regexp.MustCompile(`[_\-]{2,}`)
)

// Sanitize turns an archive entry name into a filesystem-safe flat filename.
// Path separators count as unsafe characters, so nested entries collapse
// into a single level. Sanitize is idempotent: applying it to its own output
// is a no-op.
func Sanitize(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	s = unicodeDash.ReplaceAllString(s, "-")
	s = nonASCIIRuns.ReplaceAllString(s, "_")

	if len(s) > maxNameLength {
		ext := filepath.Ext(s)
		if len(ext) >= maxNameLength {
			ext = ""
		}
		s = s[:maxNameLength-len(ext)] + ext
	}

	return mixedRuns.ReplaceAllString(s, "_")
}
