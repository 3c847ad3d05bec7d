package filter

import (
	"strings"
	"unicode"
)

// MaxDescriptionLength caps stored narratives; anything longer is truncated
// at a word boundary.
const MaxDescriptionLength = 2000

// CleanDescription normalizes a citizen-typed narrative before storage:
// control characters stripped, whitespace runs collapsed, length capped. The
// matcher does its own normalization; this only keeps stored text sane.
func CleanDescription(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range text {
		if unicode.IsControl(r) {
			r = ' '
		}
		if unicode.IsSpace(r) {
			if lastSpace {
				continue
			}
			b.WriteRune(' ')
			lastSpace = true
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}

	cleaned := strings.TrimSpace(b.String())
	if len(cleaned) <= MaxDescriptionLength {
		return cleaned
	}

	cut := cleaned[:MaxDescriptionLength]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}
