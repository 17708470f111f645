// Package textnorm folds free text into a comparable key: diacritics
// stripped, case folded, whitespace collapsed.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// dotted capital I and dotless i must be mapped before decomposition,
	// otherwise İ folds to "i̇" and ı survives as a distinct letter.
	turkishI = strings.NewReplacer("İ", "I", "ı", "i")
)

// Normalize makes "İstanbul", "istanbul" and "ISTANBUL" compare equal.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = turkishI.Replace(s)

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = strings.Join(strings.Fields(s), " ")
	// a Caser is stateful; one per call keeps Normalize safe for concurrent use
	return cases.Fold().String(s)
}
