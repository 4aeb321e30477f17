package blockid

import (
	"strings"
)

// BlockIDAttr is the attribute carrying a block's canonical anchor identifier
// in rendered documents.
const BlockIDAttr = "data-block-id"

// rawLen is the exact length of a raw block identifier: 32 hex characters.
const rawLen = 32

// Map associates raw block identifiers with their canonical dashed form for
// one page.
type Map map[string]string

// ValidRawID reports whether s is a raw block identifier: exactly 32
// lowercase hex characters.
func ValidRawID(s string) bool {
	if len(s) != rawLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// RawID strips dashes and lowercases an identifier, returning the raw form
// and whether the result is a valid raw block identifier.
func RawID(s string) (string, bool) {
	raw := strings.ToLower(strings.ReplaceAll(s, "-", ""))
	return raw, ValidRawID(raw)
}

// Format reformats a raw identifier into the canonical dashed UUID shape by
// inserting separators at positions 8, 12, 16 and 20. The input must be a
// valid raw identifier; Format returns the input unchanged otherwise.
func Format(raw string) string {
	if !ValidRawID(raw) {
		return raw
	}
	return raw[0:8] + "-" + raw[8:12] + "-" + raw[12:16] + "-" + raw[16:20] + "-" + raw[20:32]
}

// FormattedID returns the canonical form for a raw identifier, preferring the
// page's extracted map over the structural reformat. The map wins because the
// attribute actually rendered on the page may differ in representation from
// the URL-embedded raw identifier.
func FormattedID(raw string, m Map) string {
	if m != nil {
		if canonical, ok := m[raw]; ok {
			return canonical
		}
	}
	return Format(raw)
}
