package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeLabel canonicalizes a dish label for lookup: lowercase, trimmed,
// diacritics removed, and inner whitespace collapsed. Vietnamese labels
// arrive both accented ("gà chiên") and plain ("ga chien"); both must hit
// the same menu entry.
func NormalizeLabel(label string) string {
	folded, _, err := transform.String(foldTransformer, label)
	if err != nil {
		folded = label
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
