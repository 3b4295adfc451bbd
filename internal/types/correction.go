package types

import (
	"time"

	"github.com/google/uuid"
)

// CorrectionStatus is the lifecycle state of a correction request sent to a site.
type CorrectionStatus string

// Correction request states
const (
	CorrectionPending    CorrectionStatus = "pending"
	CorrectionRequested  CorrectionStatus = "requested"
	CorrectionInProgress CorrectionStatus = "inProgress"
	CorrectionCompleted  CorrectionStatus = "completed"
	CorrectionImpossible CorrectionStatus = "impossible"
	CorrectionOnHold     CorrectionStatus = "onHold"
)

// Valid reports whether s is a known correction state.
func (s CorrectionStatus) Valid() bool {
	switch s {
	case CorrectionPending, CorrectionRequested, CorrectionInProgress,
		CorrectionCompleted, CorrectionImpossible, CorrectionOnHold:
		return true
	}
	return false
}

// Open reports whether the request still awaits the site.
func (s CorrectionStatus) Open() bool {
	return s != CorrectionCompleted && s != CorrectionImpossible
}

// CorrectionRequest tracks a correction asked of a listing site.
// RequestedAt is set once, on the first transition into requested.
type CorrectionRequest struct {
	ID          uuid.UUID        `json:"id"`
	LinkID      uuid.UUID        `json:"link_id"`
	Status      CorrectionStatus `json:"status"`
	RequestedAt *time.Time       `json:"requested_at,omitempty"`
	Note        string           `json:"note,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
