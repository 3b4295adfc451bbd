package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/nap-verifier/internal/followup"
	"github.com/jonathan/nap-verifier/internal/napmatch"
	"github.com/jonathan/nap-verifier/internal/priority"
	"github.com/jonathan/nap-verifier/internal/types"
)

// DefaultPageSize is used when a mismatch filter has no limit.
const DefaultPageSize = 50

// FieldDiffs highlights where the detected values depart from the canonical ones.
type FieldDiffs struct {
	Name    []napmatch.DiffSegment `json:"name,omitempty"`
	Address []napmatch.DiffSegment `json:"address,omitempty"`
	Phone   []napmatch.DiffSegment `json:"phone,omitempty"`
}

// SiteResult is one link with its most recent attempt.
type SiteResult struct {
	Link   types.ListingLink           `json:"link"`
	Latest *types.VerificationLogEntry `json:"latest,omitempty"`
	Diffs  *FieldDiffs                 `json:"diffs,omitempty"`
}

// RecordSummary is the per-record view of verification state.
type RecordSummary struct {
	Record       types.CanonicalRecord       `json:"record"`
	SiteResults  []SiteResult                `json:"site_results"`
	NapHistory   []types.OldNapSnapshot      `json:"nap_history"`
	StatusCounts map[types.ListingStatus]int `json:"status_counts"`
}

// GetVerificationSummary returns every link of the record with its latest log entry and
// the record's NAP history.
func (s *Service) GetVerificationSummary(ctx context.Context, recordID uuid.UUID) (*RecordSummary, error) {
	record, err := s.store.GetCanonicalRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load canonical record: %w", err)
	}
	if record == nil {
		return nil, &NotFoundError{Kind: "canonical record", ID: recordID}
	}

	links, err := s.store.ListListingLinks(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing links: %w", err)
	}
	latest, err := s.store.LatestLogEntries(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification log: %w", err)
	}
	history, err := s.store.ListOldSnapshots(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load NAP history: %w", err)
	}

	summary := &RecordSummary{
		Record:       *record,
		SiteResults:  make([]SiteResult, 0, len(links)),
		NapHistory:   history,
		StatusCounts: make(map[types.ListingStatus]int),
	}
	for _, link := range links {
		sr := SiteResult{Link: link}
		if entry, ok := latest[link.ID]; ok {
			sr.Latest = &entry
			sr.Diffs = diffsFor(record, &entry)
		}
		summary.SiteResults = append(summary.SiteResults, sr)
		summary.StatusCounts[link.Status]++
	}
	return summary, nil
}

func diffsFor(record *types.CanonicalRecord, entry *types.VerificationLogEntry) *FieldDiffs {
	d := &FieldDiffs{}
	if entry.DetectedName != nil && entry.FieldMatch.Name != types.FieldMatch {
		d.Name = napmatch.Diff(record.Name, *entry.DetectedName, napmatch.NormalizeName)
	}
	if entry.DetectedAddress != nil && entry.FieldMatch.Address != types.FieldMatch {
		d.Address = napmatch.Diff(record.Address.Full(), *entry.DetectedAddress, napmatch.NormalizeAddress)
	}
	if entry.DetectedPhone != nil && entry.FieldMatch.Phone != types.FieldMatch {
		d.Phone = napmatch.Diff(record.Phone, *entry.DetectedPhone, napmatch.NormalizePhone)
	}
	if d.Name == nil && d.Address == nil && d.Phone == nil {
		return nil
	}
	return d
}

// MismatchPage is one page of links needing attention.
type MismatchPage struct {
	Items  []types.ListingLink         `json:"items"`
	Total  int                         `json:"total"`
	Limit  int                         `json:"limit"`
	Offset int                         `json:"offset"`
	Counts map[types.ListingStatus]int `json:"counts"`
}

// ListMismatches pages through links that are not matched, highest priority score first.
func (s *Service) ListMismatches(ctx context.Context, filter types.MismatchFilter) (*MismatchPage, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultPageSize
	}

	items, total, err := s.store.ListListings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	countFilter := filter
	countFilter.Status = ""
	counts, err := s.store.CountListingsByStatus(ctx, countFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	if items == nil {
		items = []types.ListingLink{}
	}
	return &MismatchPage{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Counts: counts,
	}, nil
}

// OverrideListing applies a manual status and/or tier edit. A tier set here sticks until
// the next override; the score is recomputed either way. No log entry is written.
func (s *Service) OverrideListing(ctx context.Context, caller types.Caller, linkID uuid.UUID, req types.OverrideRequest) (*types.ListingLink, error) {
	if !caller.CanTrigger() {
		return nil, &ForbiddenError{Caller: caller.UserID, Action: "override listing"}
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid override: %w", err)
	}

	link, err := s.store.GetListingLink(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing link: %w", err)
	}
	if link == nil {
		return nil, &NotFoundError{Kind: "listing link", ID: linkID}
	}
	record, err := s.store.GetCanonicalRecord(ctx, link.RecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load canonical record: %w", err)
	}

	if req.Status != nil {
		link.Status = *req.Status
	}
	if req.PriorityTier != nil {
		link.PriorityTier = *req.PriorityTier
		link.TierManual = true
	}

	site := siteOf(*link)
	stale := s.hasStaleRequest(ctx, link.ID, s.log.WithField("link_id", link.ID))
	link.PriorityTier, link.PriorityScore = priority.Recompute(link, record, &site, link.Status, stale)

	if err := s.store.UpdateListing(ctx, updateFromLink(link)); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"link_id":  link.ID,
		"status":   link.Status,
		"tier":     link.PriorityTier,
		"score":    link.PriorityScore,
		"operator": caller.UserID,
	}).Info("listing overridden")
	return link, nil
}

// ListingHistory returns a link's audit trail, newest first. A limit of 0 uses
// DefaultPageSize.
func (s *Service) ListingHistory(ctx context.Context, linkID uuid.UUID, limit int) ([]types.VerificationLogEntry, error) {
	if limit < 0 || limit > 200 {
		return nil, &InvalidInputError{Field: "limit", Message: "must be between 0 and 200"}
	}
	if limit == 0 {
		limit = DefaultPageSize
	}

	link, err := s.store.GetListingLink(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing link: %w", err)
	}
	if link == nil {
		return nil, &NotFoundError{Kind: "listing link", ID: linkID}
	}

	entries, err := s.store.ListLogEntries(ctx, linkID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	if entries == nil {
		entries = []types.VerificationLogEntry{}
	}
	return entries, nil
}

// FollowUps returns the correction requests that need chasing, urgent first.
func (s *Service) FollowUps(ctx context.Context) ([]followup.FollowUp, error) {
	reqs, err := s.store.ListOpenCorrectionRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list correction requests: %w", err)
	}
	out := followup.Evaluate(reqs, s.cfg.Now())
	if out == nil {
		out = []followup.FollowUp{}
	}
	return out, nil
}

// UpdateCorrectionRequest moves a correction request to a new status and refreshes the
// owning link's priority score, which depends on how long requests stay open.
func (s *Service) UpdateCorrectionRequest(ctx context.Context, caller types.Caller, id uuid.UUID, status types.CorrectionStatus, note string) (*types.CorrectionRequest, error) {
	if !caller.CanTrigger() {
		return nil, &ForbiddenError{Caller: caller.UserID, Action: "update correction request"}
	}
	if !status.Valid() {
		return nil, &InvalidInputError{Field: "status", Message: fmt.Sprintf("unknown correction status %q", status)}
	}

	req, err := s.store.GetCorrectionRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load correction request: %w", err)
	}
	if req == nil {
		return nil, &NotFoundError{Kind: "correction request", ID: id}
	}

	now := s.cfg.Now()
	followup.Transition(req, status, now)
	if note != "" {
		req.Note = note
	}
	req.UpdatedAt = now
	if err := s.store.SaveCorrectionRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save correction request: %w", err)
	}

	if err := s.rescore(ctx, req.LinkID, now); err != nil {
		s.log.WithError(err).WithField("link_id", req.LinkID).Warn("failed to refresh priority score")
	}
	return req, nil
}

func (s *Service) rescore(ctx context.Context, linkID uuid.UUID, now time.Time) error {
	link, err := s.store.GetListingLink(ctx, linkID)
	if err != nil || link == nil {
		return err
	}
	record, err := s.store.GetCanonicalRecord(ctx, link.RecordID)
	if err != nil {
		return err
	}
	reqs, err := s.store.ListCorrectionRequests(ctx, linkID)
	if err != nil {
		return err
	}

	site := siteOf(*link)
	link.PriorityTier, link.PriorityScore = priority.Recompute(link, record, &site, link.Status, followup.HasStaleRequest(reqs, now))
	return s.store.UpdateListing(ctx, updateFromLink(link))
}

func updateFromLink(link *types.ListingLink) types.ListingUpdate {
	return types.ListingUpdate{
		LinkID:            link.ID,
		Status:            link.Status,
		PriorityTier:      link.PriorityTier,
		TierManual:        link.TierManual,
		PriorityScore:     link.PriorityScore,
		DetectedName:      link.DetectedName,
		DetectedAddress:   link.DetectedAddress,
		DetectedPhone:     link.DetectedPhone,
		LastCheckedAt:     link.LastCheckedAt,
		LastVerifiedAt:    link.LastVerifiedAt,
		VerificationCount: link.VerificationCount,
	}
}
