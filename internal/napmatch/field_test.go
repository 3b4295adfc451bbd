package napmatch

import (
	"testing"

	"github.com/jonathan/nap-verifier/internal/types"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestClassifyField_NilDetectedIsNotFound(t *testing.T) {
	for _, n := range []Normalizer{NormalizeName, NormalizeAddress, NormalizePhone, nil} {
		got := ClassifyField("anything", nil, n)
		assert.Equal(t, FieldResult{Status: types.FieldNotFound, Similarity: 0}, got)
	}
	assert.Equal(t, types.FieldNotFound, ClassifyField("", nil, NormalizeName).Status)
}

func TestClassifyField_Scenarios(t *testing.T) {
	t.Run("exact name", func(t *testing.T) {
		got := ClassifyField("山田歯科クリニック", strPtr("山田歯科クリニック"), NormalizeName)
		assert.Equal(t, types.FieldMatch, got.Status)
		assert.Equal(t, 1.0, got.Similarity)
	})

	t.Run("address surface conventions", func(t *testing.T) {
		got := ClassifyField("東京都渋谷区神宮前1-2-3", strPtr("東京都渋谷区神宮前１丁目２番３号"), NormalizeAddress)
		assert.Equal(t, types.FieldMatch, got.Status)
		assert.Equal(t, 1.0, got.Similarity)
	})

	t.Run("full-width phone", func(t *testing.T) {
		got := ClassifyField("03-1234-5678", strPtr("０３１２３４５６７８"), NormalizePhone)
		assert.Equal(t, types.FieldMatch, got.Status)
		assert.Equal(t, 1.0, got.Similarity)
	})
}

func TestClassifyField_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		detected string
		status   types.FieldStatus
	}{
		// 1 edit over 10 runes -> 0.9
		{"at match threshold", "0123456789", "0123456780", types.FieldMatch},
		// 2 edits over 10 runes -> 0.8
		{"partial", "0123456789", "0123456700", types.FieldPartialMatch},
		// 3 edits over 10 runes -> 0.7
		{"at partial threshold", "0123456789", "0123456000", types.FieldPartialMatch},
		// 4 edits over 10 runes -> 0.6
		{"mismatch", "0123456789", "0123450000", types.FieldMismatch},
		{"detected empty string", "0123456789", "", types.FieldMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyField(tt.expected, strPtr(tt.detected), NormalizeName)
			assert.Equal(t, tt.status, got.Status)
		})
	}
}

func TestFieldError(t *testing.T) {
	assert.Equal(t, FieldResult{Status: types.FieldError, Similarity: 0}, FieldError())
}
