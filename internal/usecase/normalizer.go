package usecase

import (
	"strings"
	"unicode"
)

// Normalize produces the canonical form of a product name used for all
// similarity comparisons. It keeps letters of any script and digits, drops
// punctuation and whitespace, and lower-cases cased scripts. Supplier
// listings mix CJK text with Latin model codes and decorative punctuation;
// none of the dropped characters carry matching signal.
//
// Normalize is deterministic and idempotent: Normalize(Normalize(x)) ==
// Normalize(x). Empty or all-noise input yields an empty string, which is a
// valid (zero-similarity) value, not an error.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
