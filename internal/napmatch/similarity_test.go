package napmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"山田歯科", "山田歯科医院", 2},
		{"山田歯科", "川田歯科", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestSimilarity_EmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("abc", ""))
	assert.Equal(t, 0.0, Similarity("", "abc"))
}

func TestSimilarity_Identity(t *testing.T) {
	for _, s := range []string{"a", "山田歯科クリニック", "0312345678", "東京都渋谷区神宮前1-2-3"} {
		assert.Equal(t, 1.0, Similarity(s, s))
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"山田歯科クリニック", "山田歯科"},
		{"0312345678", "0312345679"},
		{"abc", "xyz"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestSimilarity_UsesRuneLength(t *testing.T) {
	// one substitution over ten runes
	assert.InDelta(t, 0.9, Similarity("0312345678", "0312345679"), 1e-9)
	// one substitution over four runes, regardless of UTF-8 byte length
	assert.InDelta(t, 0.75, Similarity("山田歯科", "川田歯科"), 1e-9)
}

func TestSimilarity_Range(t *testing.T) {
	s := Similarity("abc", "xyz")
	assert.Equal(t, 0.0, s)
	s = Similarity("a", "abcdefghij")
	assert.GreaterOrEqual(t, s, 0.0)
	assert.LessOrEqual(t, s, 1.0)
}
