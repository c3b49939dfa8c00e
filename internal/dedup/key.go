package dedup

import (
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes text and removes combining marks, so that
// "café" and "cafe" normalize to the same form.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize converts source text into its canonical dedup form:
// case-folded, diacritics stripped, whitespace collapsed to single
// spaces with no leading or trailing runs.
func Normalize(text string) string {
	stripped, _, err := transform.String(stripMarks, text)
	if err != nil {
		// The transform chain only fails on malformed UTF-8; fall back
		// to the raw input so the key is still deterministic.
		stripped = text
	}

	// Unicode case folding rather than plain lowercasing, so forms
	// like "Straße" and "STRASSE" share one key. Casers are stateful,
	// so build one per call.
	folded := cases.Fold().String(stripped)
	return strings.Join(strings.Fields(folded), " ")
}

// Key identifies a piece of content by its normalized text and locale.
type Key struct {
	Text   string
	Locale string
}

// NewKey builds the dedup key for the given raw source text and locale.
// The locale is lowercased but otherwise kept as submitted.
func NewKey(sourceText, locale string) Key {
	return Key{
		Text:   Normalize(sourceText),
		Locale: strings.ToLower(strings.TrimSpace(locale)),
	}
}

// Hash returns a stable 64-bit digest of the key, suitable for an index
// column. Text and locale are separated by a NUL byte so the pair cannot
// alias across boundaries.
func (k Key) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(k.Text)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.Locale)
	return d.Sum64()
}
