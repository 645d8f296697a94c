package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Generate returns a lowercase, hyphen-separated ASCII form of name for use
// in URLs and asset keys. Diacritics are dropped and "&" is spelled out:
//
//   - "Kurtas & Tunics" → "kurtas-and-tunics"
//   - "Crêpe Dupatta" → "crepe-dupatta"
//   - "  Festive   Kurta #12 " → "festive-kurta-12"
func Generate(name string) string {
	s, _, err := transform.String(stripMarks, name)
	if err != nil {
		s = name
	}
	s = strings.ReplaceAll(strings.ToLower(s), "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
