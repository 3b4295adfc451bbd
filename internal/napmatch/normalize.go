// Package napmatch compares detected Name/Address/Phone values against a canonical record.
// It is shared by the persisted verification pipeline and by diff rendering so both use
// the same normalization and distance rules.
package napmatch

import (
	"strings"
	"unicode"
)

// Normalizer canonicalizes one field before comparison.
type Normalizer func(string) string

// dashLike are the dash and long-vowel variants that appear in printed addresses.
var dashLike = map[rune]bool{
	'‐': true, // hyphen
	'‑': true, // non-breaking hyphen
	'‒': true, // figure dash
	'–': true, // en dash
	'—': true, // em dash
	'―': true, // horizontal bar
	'−': true, // minus sign
	'─': true, // box drawing horizontal
	'ー': true, // katakana long vowel mark
	'－': true, // full-width hyphen-minus
	'ｰ': true, // half-width long vowel mark
}

// addressMarkers are replaced in order; 番地 must precede 番. 号 is dropped beforehand
// because removing it can join the halves of a marker (丁号目).
var addressMarkers = strings.NewReplacer(
	"丁目", "-",
	"番地", "-",
	"番", "-",
)

// FoldDigits converts full-width digits to ASCII digits and leaves everything else alone.
func FoldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return r - '０' + '0'
		}
		return r
	}, s)
}

// NormalizeAddress canonicalizes a Japanese postal address so that two addresses differing
// only in digit width, dash style, block/lot markers or whitespace compare equal.
func NormalizeAddress(s string) string {
	s = FoldDigits(s)
	s = strings.Map(func(r rune) rune {
		if dashLike[r] {
			return '-'
		}
		if unicode.IsSpace(r) || r == '号' {
			return -1
		}
		return r
	}, s)
	s = addressMarkers.Replace(s)

	var sb strings.Builder
	sb.Grow(len(s))
	prevDash := false
	for _, r := range s {
		if r == '-' {
			if prevDash {
				continue
			}
			prevDash = true
		} else {
			prevDash = false
		}
		sb.WriteRune(r)
	}
	return strings.Trim(sb.String(), "-")
}

// NormalizePhone keeps only the ASCII digits of a phone number, after folding full-width digits.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return r - '０' + '0'
		}
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// NormalizeName is the identity: business names are compared exactly.
func NormalizeName(s string) string {
	return s
}
