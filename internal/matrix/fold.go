package matrix

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// stripAccents removes combining marks: "Bâtiment accès" -> "Batiment acces".
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lower-cases s, strips accents and collapses whitespace. Keyword
// matching always runs on folded text.
func Fold(s string) string {
	s = apostrophes.Replace(stripAccents(s))
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CanonicalCode is the comparison form of a zone or equipment code:
// accents stripped, upper case, no whitespace.
func CanonicalCode(code string) string {
	s := strings.ToUpper(stripAccents(code))
	return strings.Join(strings.Fields(s), "")
}

// nameKey is the case and space insensitive form of a display name.
func nameKey(s string) string {
	return strings.ReplaceAll(Fold(s), " ", "")
}
