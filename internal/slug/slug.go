// Package slug turns card names into filesystem-safe file stems.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	disallowed = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[-\s]+`)
)

func asciiFold() transform.Transformer {
	return transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
}

// Make returns the slug for name: accents are decomposed and dropped, the
// result is lower-cased, punctuation is removed and runs of whitespace or
// hyphens become a single hyphen.
func Make(name string) string {
	folded, _, err := transform.String(asciiFold(), name)
	if err != nil {
		folded = name
	}

	s := disallowed.ReplaceAllString(strings.ToLower(folded), "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}
