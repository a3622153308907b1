package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Canonical reduces text to the comparison form used when matching
// transcription tokens against script lines. Width variants fold together,
// letters lowercase, and everything except letters and digits is dropped, so
// the comparison is insensitive to which surface form the speech-to-text
// engine happened to emit.
func Canonical(text string) string {
	// Fold widths before Normalize so full-width Latin hits the dictionary.
	folded := Normalize(width.Fold.String(norm.NFKC.String(text)))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
