package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Serendipity", "serendipity"},
		{"strips diacritics", "Café au Lait", "cafe au lait"},
		{"collapses whitespace", "  bonne \t nuit \n", "bonne nuit"},
		{"combined", "  CRÈME   Brûlée ", "creme brulee"},
		{"german sharp s folds to ss", "Straße", "strasse"},
		{"uppercase variant folds to the same form", "STRASSE", "strasse"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNewKey(t *testing.T) {
	key := NewKey("  Café ", "FR")

	assert.Equal(t, "cafe", key.Text)
	assert.Equal(t, "fr", key.Locale)
}

func TestKeyHash(t *testing.T) {
	t.Run("equivalent variants hash identically", func(t *testing.T) {
		a := NewKey("Café", "fr")
		b := NewKey("  cafe ", "FR")
		assert.Equal(t, a.Hash(), b.Hash())
	})

	t.Run("case-folded variants hash identically", func(t *testing.T) {
		a := NewKey("Straße", "de")
		b := NewKey("STRASSE", "de")
		assert.Equal(t, a.Hash(), b.Hash())
	})

	t.Run("locale distinguishes keys", func(t *testing.T) {
		a := NewKey("chat", "fr")
		b := NewKey("chat", "en")
		assert.NotEqual(t, a.Hash(), b.Hash())
	})

	t.Run("text and locale cannot alias across the separator", func(t *testing.T) {
		a := Key{Text: "ab", Locale: "c"}
		b := Key{Text: "a", Locale: "bc"}
		assert.NotEqual(t, a.Hash(), b.Hash())
	})
}
