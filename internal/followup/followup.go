// Package followup tracks how long correction requests have gone unanswered.
package followup

import (
	"sort"
	"time"

	"github.com/jonathan/nap-verifier/internal/types"
)

const (
	// FollowUpDays is when a sent request needs chasing. It is also the priority-score stale threshold.
	FollowUpDays = 7
	// UrgentDays escalates the follow-up label. Display and sorting only.
	UrgentDays = 14

	day = 24 * time.Hour
)

// DaysElapsed returns whole days since the request was sent, or nil if it never was.
func DaysElapsed(req *types.CorrectionRequest, now time.Time) *int {
	if req == nil || req.RequestedAt == nil {
		return nil
	}
	d := int(now.Sub(*req.RequestedAt) / day)
	if now.Before(*req.RequestedAt) {
		d = 0
	}
	return &d
}

// NeedsFollowUp reports whether a sent request has waited FollowUpDays or longer.
func NeedsFollowUp(req *types.CorrectionRequest, now time.Time) bool {
	if req == nil || req.Status != types.CorrectionRequested {
		return false
	}
	d := DaysElapsed(req, now)
	return d != nil && *d >= FollowUpDays
}

// IsUrgent reports whether an overdue request has waited UrgentDays or longer.
func IsUrgent(req *types.CorrectionRequest, now time.Time) bool {
	if !NeedsFollowUp(req, now) {
		return false
	}
	return *DaysElapsed(req, now) >= UrgentDays
}

// Transition moves a request to status. RequestedAt is stamped the first time the
// request enters requested and is never cleared afterwards.
func Transition(req *types.CorrectionRequest, status types.CorrectionStatus, now time.Time) {
	if status == types.CorrectionRequested && req.RequestedAt == nil {
		t := now
		req.RequestedAt = &t
	}
	req.Status = status
	req.UpdatedAt = now
}

// HasStaleRequest reports whether any open request has been outstanding FollowUpDays or longer.
func HasStaleRequest(reqs []types.CorrectionRequest, now time.Time) bool {
	for i := range reqs {
		if !reqs[i].Status.Open() {
			continue
		}
		if d := DaysElapsed(&reqs[i], now); d != nil && *d >= FollowUpDays {
			return true
		}
	}
	return false
}

// FollowUp is one overdue request with its derived timing.
type FollowUp struct {
	Request     types.CorrectionRequest `json:"request"`
	DaysElapsed int                     `json:"days_elapsed"`
	Urgent      bool                    `json:"urgent"`
}

// Evaluate returns the requests that need follow-up, urgent first, then longest waiting.
func Evaluate(reqs []types.CorrectionRequest, now time.Time) []FollowUp {
	var out []FollowUp
	for i := range reqs {
		if !NeedsFollowUp(&reqs[i], now) {
			continue
		}
		out = append(out, FollowUp{
			Request:     reqs[i],
			DaysElapsed: *DaysElapsed(&reqs[i], now),
			Urgent:      IsUrgent(&reqs[i], now),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Urgent != out[j].Urgent {
			return out[i].Urgent
		}
		return out[i].DaysElapsed > out[j].DaysElapsed
	})
	return out
}
