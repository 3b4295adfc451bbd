package verification

import (
	"github.com/google/uuid"

	"github.com/jonathan/nap-verifier/internal/napmatch"
	"github.com/jonathan/nap-verifier/internal/types"
)

// Outcome is what happened to one link in a run.
type Outcome string

// Link outcomes
const (
	OutcomeVerified Outcome = "verified"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeError    Outcome = "error"
)

// FieldResults holds the three field classifications of one attempt.
type FieldResults struct {
	Name    napmatch.FieldResult `json:"name"`
	Address napmatch.FieldResult `json:"address"`
	Phone   napmatch.FieldResult `json:"phone"`
}

// LinkResult is the per-link outcome of a run.
type LinkResult struct {
	LinkID         uuid.UUID                `json:"link_id"`
	SiteID         uuid.UUID                `json:"site_id"`
	SiteName       string                   `json:"site_name"`
	Outcome        Outcome                  `json:"outcome"`
	OverallStatus  types.VerificationStatus `json:"overall_status,omitempty"`
	Status         types.ListingStatus      `json:"status"`
	PriorityTier   types.PriorityTier       `json:"priority_tier"`
	PriorityScore  int                      `json:"priority_score"`
	Fields         *FieldResults            `json:"fields,omitempty"`
	Confidence     float64                  `json:"confidence"`
	OutdatedFields []string                 `json:"outdated_fields,omitempty"`
	ErrorMessage   string                   `json:"error_message,omitempty"`
}

// Summary counts link outcomes.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Error   int `json:"error"`
	Skipped int `json:"skipped"`
}

func (s *Summary) add(o Summary) {
	s.Total += o.Total
	s.Success += o.Success
	s.Error += o.Error
	s.Skipped += o.Skipped
}

// RunResult is returned by RunVerification.
type RunResult struct {
	RecordID uuid.UUID    `json:"record_id"`
	Results  []LinkResult `json:"results"`
	Summary  Summary      `json:"summary"`
}

func summarize(results []LinkResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeVerified:
			s.Success++
		case OutcomeSkipped:
			s.Skipped++
		default:
			s.Error++
		}
	}
	return s
}
