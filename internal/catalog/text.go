package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold canonicalizes free text for vocabulary lookups: case-folded,
// diacritics removed, surrounding and repeated inner whitespace collapsed.
// "  Às  Vezes " and "as vezes" fold to the same key.
func Fold(s string) string {
	// Transformers carry state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)
	return strings.Join(strings.Fields(folded), " ")
}

func newEncoding(name string, lo, hi float64, labels map[string]float64) *Encoding {
	folded := make(map[string]float64, len(labels))
	for k, v := range labels {
		folded[Fold(k)] = v
	}
	return &Encoding{Name: name, Min: lo, Max: hi, Labels: folded}
}

func mergeLabels(sets ...map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}
