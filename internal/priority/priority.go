// Package priority derives remediation urgency for listing links.
//
// Two signals are kept apart: Score is an additive sort key recomputed on every status,
// tier or manual change; InferTier is the multiplicative composite used only when an
// operator has not set the tier.
package priority

import "github.com/jonathan/nap-verifier/internal/types"

// StaleRequestBonus is added when a correction request has been open a week or more.
const StaleRequestBonus = 20

// Inputs are the independent contributions to a listing's score.
type Inputs struct {
	Status       types.ListingStatus
	Tier         types.PriorityTier
	SEOImpact    string
	StaleRequest bool
}

// Score returns the additive urgency score. It is monotonic in each input.
func Score(in Inputs) int {
	score := statusPoints(in.Status) + tierPoints(in.Tier) + seoPoints(in.SEOImpact)
	if in.StaleRequest {
		score += StaleRequestBonus
	}
	return score
}

func statusPoints(s types.ListingStatus) int {
	switch s {
	case types.ListingMismatched:
		return 50
	case types.ListingNeedsReview:
		return 40
	case types.ListingUnchecked:
		return 20
	default:
		return 0
	}
}

func tierPoints(t types.PriorityTier) int {
	switch t {
	case types.TierUrgent:
		return 100
	case types.TierHigh:
		return 50
	case types.TierMedium:
		return 20
	default:
		return 10
	}
}

func seoPoints(impact string) int {
	switch impact {
	case "large":
		return 30
	case "medium":
		return 15
	case "small":
		return 5
	default:
		return 0
	}
}

var (
	importanceWeights = map[string]int{"high": 3, "medium": 2, "low": 1}
	seoWeights        = map[string]int{"large": 3, "medium": 2, "small": 1, "none": 0}
	urgencyWeights    = map[types.ListingStatus]int{
		types.ListingMismatched:   5,
		types.ListingNeedsReview:  4,
		types.ListingUnregistered: 3,
		types.ListingUnchecked:    2,
		types.ListingInaccessible: 1,
		types.ListingMatched:      0,
	}
)

// Composite returns importance × SEO impact × status urgency. Unknown importance counts as low.
func Composite(importance, seoImpact string, status types.ListingStatus) int {
	imp, ok := importanceWeights[importance]
	if !ok {
		imp = 1
	}
	return imp * seoWeights[seoImpact] * urgencyWeights[status]
}

// InferTier buckets the composite into a tier.
func InferTier(importance, seoImpact string, status types.ListingStatus) types.PriorityTier {
	c := Composite(importance, seoImpact, status)
	switch {
	case c >= 30:
		return types.TierUrgent
	case c >= 15:
		return types.TierHigh
	case c >= 5:
		return types.TierMedium
	default:
		return types.TierLow
	}
}

// Recompute returns the tier and score a link should carry after its status changed.
// A manually set tier is kept; otherwise the tier is inferred.
func Recompute(link *types.ListingLink, record *types.CanonicalRecord, site *types.Site, status types.ListingStatus, staleRequest bool) (types.PriorityTier, int) {
	seo := ""
	if site != nil {
		seo = site.SEOImpact
	}
	importance := ""
	if record != nil {
		importance = record.Importance
	}

	tier := link.PriorityTier
	if !link.TierManual || !tier.Valid() {
		tier = InferTier(importance, seo, status)
	}
	return tier, Score(Inputs{Status: status, Tier: tier, SEOImpact: seo, StaleRequest: staleRequest})
}

// KeepStoredTier reconciles a verification write with the tier stored on the link at write
// time. An operator may set or clear a manual tier while an attempt is running, so the
// stored flag wins and the score is shifted by the tier difference.
func KeepStoredTier(u *types.ListingUpdate, storedTier types.PriorityTier, storedManual bool) {
	tier := u.InferredTier
	switch {
	case storedManual && storedTier.Valid():
		tier = storedTier
	case !tier.Valid():
		tier = u.PriorityTier
	}
	u.PriorityScore += tierPoints(tier) - tierPoints(u.PriorityTier)
	u.PriorityTier = tier
	u.TierManual = storedManual
}
