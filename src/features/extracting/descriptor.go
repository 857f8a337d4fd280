package extracting

import (
	"regexp"
	"strings"
)

var (
	variantIDPattern = regexp.MustCompile(`BeatmapID:(\d+)`)
	audioFilePattern = regexp.MustCompile(`AudioFilename:(.+)`)
)

// descriptor is one parsed variant descriptor from the archive.
type descriptor struct {
	variantID string
	audioFile string
}

// parseDescriptor extracts the variant id and referenced raw-audio filename
// from a descriptor file's content. Descriptors are line-oriented Key:Value
// text; only the two keys the pipeline needs are read. Returns false when
// either key is missing.
func parseDescriptor(content string) (descriptor, bool) {
	idMatch := variantIDPattern.FindStringSubmatch(content)
	audioMatch := audioFilePattern.FindStringSubmatch(content)
	if idMatch == nil || audioMatch == nil {
		return descriptor{}, false
	}
	return descriptor{
		variantID: strings.TrimSpace(idMatch[1]),
		audioFile: strings.TrimSpace(audioMatch[1]),
	}, true
}

// resolveAudioName maps the pre-sanitization audio filename a descriptor
// references to the sanitized name the file was actually extracted under.
// The descriptor may reference the file with or without its directory
// prefix, hence the suffix match. Candidates are scanned in archive order so
// two entries sharing the referenced suffix always resolve to the same one.
func resolveAudioName(audioFile string, entryNames []string, sanitized map[string]string) string {
	for _, original := range entryNames {
		if strings.HasSuffix(original, audioFile) {
			return sanitized[original]
		}
	}
	return audioFile
}
