package mediation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// crisisTerms are matched against accent-folded, lower-cased text.
var crisisTerms = []string{
	"suicidio",
	"me matar",
	"quero morrer",
	"me machucar",
	"automutilacao",
	"nao aguento mais",
	"crise",
	"panico",
	"socorro",
	"emergencia",
}

// fold lower-cases s and strips diacritics.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Detect reports whether text suggests a situation that needs a human professional.
func Detect(text string) bool {
	f := fold(text)
	for _, term := range crisisTerms {
		if strings.Contains(f, term) {
			return true
		}
	}
	return false
}
