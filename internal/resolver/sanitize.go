package resolver

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxSegmentLen bounds a single path segment. Long titles are truncated so
// the mirrored tree stays under filesystem path limits even at depth.
const maxSegmentLen = 80

// forbiddenSegmentChars are characters that cannot appear in a path segment
// on common filesystems, plus separators that would split the segment.
const forbiddenSegmentChars = `/\:*?"<>|#%`

// SanitizeSegment converts a page title into a filesystem- and URL-safe path
// segment. Unicode is normalized to NFKC so visually identical titles map to
// identical segments, forbidden characters are replaced by dashes, and
// whitespace collapses to single spaces.
//
// An empty result (for example a title made entirely of forbidden
// characters) returns "untitled"; callers that need sibling uniqueness must
// disambiguate on top of this.
func SanitizeSegment(title string) string {
	s := norm.NFKC.String(title)

	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case strings.ContainsRune(forbiddenSegmentChars, r), r < 0x20:
			b.WriteRune('-')
			lastSpace = false
		case r == ' ', r == '\t', r == '\n', r == ' ':
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastSpace = true
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	out := strings.Trim(b.String(), " .-")
	if len(out) > maxSegmentLen {
		cut := maxSegmentLen
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimRight(out[:cut], " .-")
	}
	if out == "" {
		return "untitled"
	}
	return out
}
