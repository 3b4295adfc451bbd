package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// FieldStatus classifies one NAP field of a detection.
type FieldStatus string

// Field statuses
const (
	FieldMatch        FieldStatus = "match"
	FieldPartialMatch FieldStatus = "partialMatch"
	FieldMismatch     FieldStatus = "mismatch"
	FieldNotFound     FieldStatus = "notFound"
	FieldError        FieldStatus = "error"
)

// VerificationStatus is the listing-level outcome of one attempt.
type VerificationStatus string

// Verification statuses
const (
	StatusVerified    VerificationStatus = "verified"
	StatusMismatch    VerificationStatus = "mismatch"
	StatusNeedsReview VerificationStatus = "needsReview"
	StatusNotFound    VerificationStatus = "notFound"
	StatusError       VerificationStatus = "error"
)

// FieldMatches holds the per-field classification of one attempt.
type FieldMatches struct {
	Name    FieldStatus `json:"name"`
	Address FieldStatus `json:"address"`
	Phone   FieldStatus `json:"phone"`
}

// VerificationLogEntry is the immutable audit record of one verification attempt.
type VerificationLogEntry struct {
	ID              uuid.UUID          `json:"id"`
	LinkID          uuid.UUID          `json:"link_id"`
	SearchQuery     string             `json:"search_query"`
	FoundURL        *string            `json:"found_url,omitempty"`
	DetectedName    *string            `json:"detected_name,omitempty"`
	DetectedAddress *string            `json:"detected_address,omitempty"`
	DetectedPhone   *string            `json:"detected_phone,omitempty"`
	FieldMatch      FieldMatches       `json:"field_match"`
	OverallStatus   VerificationStatus `json:"overall_status"`
	Confidence      float64            `json:"confidence"`
	OutdatedFields  []string           `json:"outdated_fields,omitempty"`
	TriggeredBy     uuid.UUID          `json:"triggered_by"`
	VerifiedAt      time.Time          `json:"verified_at"`
	ErrorMessage    *string            `json:"error_message,omitempty"`
}

// RunRequest is the body of a verification trigger.
type RunRequest struct {
	SiteIDs      []uuid.UUID `json:"site_ids,omitempty" validate:"omitempty,dive,required"`
	ForceRefresh bool        `json:"force_refresh"`
}

// Validate validates the RunRequest using the validator.
func (r *RunRequest) Validate() error {
	return validate.Struct(r)
}

// MismatchFilter narrows a mismatch listing. Zero values mean "any".
type MismatchFilter struct {
	Status   ListingStatus `json:"status,omitempty" validate:"omitempty,oneof=unchecked matched mismatched needsReview unregistered inaccessible"`
	RecordID uuid.UUID     `json:"record_id,omitempty"`
	SiteID   uuid.UUID     `json:"site_id,omitempty"`
	Limit    int           `json:"limit" validate:"gte=0,lte=200"`
	Offset   int           `json:"offset" validate:"gte=0"`
}

// Validate validates the MismatchFilter using the validator.
func (f *MismatchFilter) Validate() error {
	return validate.Struct(f)
}
