package correlation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticStripper folds accented runes down to their base form (é -> e)
// before the surface form is case-folded and punctuation-trimmed. spec.md's
// consolidation algorithm requires grouping occurrences that differ only in
// accent/case/leading-or-trailing punctuation under one canonical entity.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeSurfaceForm produces the grouping key consolidation buckets
// occurrences under: diacritic-stripped, case-folded, leading/trailing
// punctuation trimmed, internal whitespace collapsed.
func normalizeSurfaceForm(s string) string {
	stripped, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		stripped = s
	}
	stripped = strings.ToLower(stripped)
	stripped = strings.TrimFunc(stripped, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	fields := strings.Fields(stripped)
	return strings.Join(fields, " ")
}
