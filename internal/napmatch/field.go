package napmatch

import "github.com/jonathan/nap-verifier/internal/types"

// Fixed policy thresholds for "close enough".
const (
	MatchThreshold        = 0.9
	PartialMatchThreshold = 0.7
)

// FieldResult is the classification of one field.
type FieldResult struct {
	Status     types.FieldStatus `json:"status"`
	Similarity float64           `json:"similarity"`
}

// ClassifyField compares an expected value with a detected one after normalizing both.
// A nil detected value means the site did not show the field at all.
func ClassifyField(expected string, detected *string, normalize Normalizer) FieldResult {
	if detected == nil {
		return FieldResult{Status: types.FieldNotFound, Similarity: 0}
	}
	if normalize == nil {
		normalize = NormalizeName
	}

	exp := normalize(expected)
	det := normalize(*detected)
	if exp == det {
		return FieldResult{Status: types.FieldMatch, Similarity: 1}
	}

	sim := Similarity(exp, det)
	switch {
	case sim >= MatchThreshold:
		return FieldResult{Status: types.FieldMatch, Similarity: sim}
	case sim >= PartialMatchThreshold:
		return FieldResult{Status: types.FieldPartialMatch, Similarity: sim}
	default:
		return FieldResult{Status: types.FieldMismatch, Similarity: sim}
	}
}

// FieldError is the result for a field that could not be evaluated.
func FieldError() FieldResult {
	return FieldResult{Status: types.FieldError, Similarity: 0}
}
