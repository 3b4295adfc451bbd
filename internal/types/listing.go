package types

import (
	"time"

	"github.com/google/uuid"
)

// ListingStatus is the verification state of a listing link.
type ListingStatus string

// Listing states. Every state can be re-entered by a later verification.
const (
	ListingUnchecked    ListingStatus = "unchecked"
	ListingMatched      ListingStatus = "matched"
	ListingMismatched   ListingStatus = "mismatched"
	ListingNeedsReview  ListingStatus = "needsReview"
	ListingUnregistered ListingStatus = "unregistered"
	ListingInaccessible ListingStatus = "inaccessible"
)

// Valid reports whether s is a known listing state.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingUnchecked, ListingMatched, ListingMismatched, ListingNeedsReview, ListingUnregistered, ListingInaccessible:
		return true
	}
	return false
}

// PriorityTier is the coarse remediation priority label.
type PriorityTier string

// Priority tiers
const (
	TierLow    PriorityTier = "low"
	TierMedium PriorityTier = "medium"
	TierHigh   PriorityTier = "high"
	TierUrgent PriorityTier = "urgent"
)

// Valid reports whether t is a known tier.
func (t PriorityTier) Valid() bool {
	switch t {
	case TierLow, TierMedium, TierHigh, TierUrgent:
		return true
	}
	return false
}

// ListingLink associates a canonical record with one site and carries its verification state.
// Exactly one link exists per (record, site) pair.
type ListingLink struct {
	ID                uuid.UUID     `json:"id"`
	RecordID          uuid.UUID     `json:"record_id"`
	SiteID            uuid.UUID     `json:"site_id"`
	Site              *Site         `json:"site,omitempty"`
	Status            ListingStatus `json:"status"`
	PriorityTier      PriorityTier  `json:"priority_tier"`
	TierManual        bool          `json:"tier_manual"`
	PriorityScore     int           `json:"priority_score"`
	DetectedName      *string       `json:"detected_name,omitempty"`
	DetectedAddress   *string       `json:"detected_address,omitempty"`
	DetectedPhone     *string       `json:"detected_phone,omitempty"`
	LastCheckedAt     *time.Time    `json:"last_checked_at,omitempty"`
	LastVerifiedAt    *time.Time    `json:"last_verified_at,omitempty"`
	VerificationCount int           `json:"verification_count"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ListingUpdate is the state written back to a link after an attempt or a manual edit.
type ListingUpdate struct {
	LinkID            uuid.UUID
	Status            ListingStatus
	PriorityTier      PriorityTier
	TierManual        bool
	PriorityScore     int
	// InferredTier is the computed tier, used by verification writes when the stored link
	// has no manual tier.
	InferredTier      PriorityTier
	DetectedName      *string
	DetectedAddress   *string
	DetectedPhone     *string
	LastCheckedAt     *time.Time
	LastVerifiedAt    *time.Time
	VerificationCount int
}

// OverrideRequest is a manual edit of a listing's status and/or tier.
type OverrideRequest struct {
	Status       *ListingStatus `json:"status,omitempty" validate:"omitempty,oneof=unchecked matched mismatched needsReview unregistered inaccessible"`
	PriorityTier *PriorityTier  `json:"priority_tier,omitempty" validate:"omitempty,oneof=low medium high urgent"`
}

// Validate validates the OverrideRequest using the validator.
func (r *OverrideRequest) Validate() error {
	return validate.Struct(r)
}
