package napmatch

import "github.com/jonathan/nap-verifier/internal/types"

// Aggregate combines the three field classifications into one listing-level status.
// error is checked before mismatch so a processing failure is never reported as a
// content mismatch.
func Aggregate(name, address, phone types.FieldStatus) types.VerificationStatus {
	all := []types.FieldStatus{name, address, phone}

	if every(all, types.FieldMatch) {
		return types.StatusVerified
	}
	if every(all, types.FieldNotFound) {
		return types.StatusNotFound
	}
	if some(all, types.FieldError) {
		return types.StatusError
	}
	if some(all, types.FieldMismatch) {
		return types.StatusMismatch
	}
	return types.StatusNeedsReview
}

// ListingStatusFor maps an attempt outcome onto the listing state machine.
// An error leaves the link unchecked so the next run retries it.
func ListingStatusFor(s types.VerificationStatus) types.ListingStatus {
	switch s {
	case types.StatusVerified:
		return types.ListingMatched
	case types.StatusMismatch:
		return types.ListingMismatched
	case types.StatusNeedsReview:
		return types.ListingNeedsReview
	case types.StatusNotFound:
		return types.ListingUnregistered
	default:
		return types.ListingUnchecked
	}
}

// Confidence is the mean similarity of the given field results.
func Confidence(results ...FieldResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Similarity
	}
	return sum / float64(len(results))
}

func every(statuses []types.FieldStatus, want types.FieldStatus) bool {
	for _, s := range statuses {
		if s != want {
			return false
		}
	}
	return true
}

func some(statuses []types.FieldStatus, want types.FieldStatus) bool {
	for _, s := range statuses {
		if s == want {
			return true
		}
	}
	return false
}
