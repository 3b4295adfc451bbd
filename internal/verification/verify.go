package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/nap-verifier/internal/extract"
	"github.com/jonathan/nap-verifier/internal/followup"
	"github.com/jonathan/nap-verifier/internal/napmatch"
	"github.com/jonathan/nap-verifier/internal/priority"
	"github.com/jonathan/nap-verifier/internal/retrieval"
	"github.com/jonathan/nap-verifier/internal/types"
)

// detection is what retrieval and extraction produced for one link.
type detection struct {
	query    string
	detected extract.Detected
	// pageErr is set when the snippet was incomplete and the listing page could not be
	// read; the missing fields are then unevaluable rather than absent.
	pageErr error
}

func (s *Service) verifyLink(ctx context.Context, caller types.Caller, record *types.CanonicalRecord, link types.ListingLink, snapshots []types.OldNapSnapshot, force bool) LinkResult {
	now := s.cfg.Now()
	site := siteOf(link)
	log := s.log.WithFields(logrus.Fields{"record_id": record.ID, "link_id": link.ID, "site": site.Name})

	result := LinkResult{
		LinkID:        link.ID,
		SiteID:        link.SiteID,
		SiteName:      site.Name,
		Status:        link.Status,
		PriorityTier:  link.PriorityTier,
		PriorityScore: link.PriorityScore,
	}

	if !force && link.LastVerifiedAt != nil && now.Sub(*link.LastVerifiedAt) < s.cfg.CacheWindow {
		result.Outcome = OutcomeSkipped
		log.Debug("verified within cache window, skipping")
		return result
	}

	stale := s.hasStaleRequest(ctx, link.ID, log)

	det, err := s.detect(ctx, record, site)
	if err != nil {
		return s.recordFailure(ctx, caller, record, link, site, det.query, err, stale, log)
	}

	fields := classify(record, det)
	overall := napmatch.Aggregate(fields.Name.Status, fields.Address.Status, fields.Phone.Status)
	status := napmatch.ListingStatusFor(overall)
	tier, score := priority.Recompute(&link, record, &site, status, stale)
	outdated := outdatedFields(det.detected, fields, snapshots)
	confidence := napmatch.Confidence(fields.Name, fields.Address, fields.Phone)

	entry := &types.VerificationLogEntry{
		ID:              uuid.New(),
		LinkID:          link.ID,
		SearchQuery:     det.query,
		FoundURL:        det.detected.FoundURL,
		DetectedName:    det.detected.Name,
		DetectedAddress: det.detected.Address,
		DetectedPhone:   det.detected.Phone,
		FieldMatch: types.FieldMatches{
			Name:    fields.Name.Status,
			Address: fields.Address.Status,
			Phone:   fields.Phone.Status,
		},
		OverallStatus:  overall,
		Confidence:     confidence,
		OutdatedFields: outdated,
		TriggeredBy:    caller.UserID,
		VerifiedAt:     now,
	}

	update := types.ListingUpdate{
		LinkID:            link.ID,
		Status:            status,
		PriorityTier:      tier,
		TierManual:        link.TierManual,
		PriorityScore:     score,
		InferredTier:      priority.InferTier(record.Importance, site.SEOImpact, status),
		DetectedName:      det.detected.Name,
		DetectedAddress:   det.detected.Address,
		DetectedPhone:     det.detected.Phone,
		LastCheckedAt:     &now,
		LastVerifiedAt:    &now,
		VerificationCount: link.VerificationCount + 1,
	}

	outcome := OutcomeVerified
	if overall == types.StatusError {
		msg := "listing page could not be read"
		if det.pageErr != nil {
			msg = det.pageErr.Error()
		}
		entry.ErrorMessage = &msg
		update.LastVerifiedAt = link.LastVerifiedAt
		update.VerificationCount = link.VerificationCount
		outcome = OutcomeError
		result.ErrorMessage = msg
	}

	if err := s.store.RecordVerification(ctx, entry, update); err != nil {
		log.WithError(err).Error("failed to persist verification")
		result.Outcome = OutcomeError
		result.ErrorMessage = fmt.Sprintf("failed to persist verification: %v", err)
		return result
	}

	result.Outcome = outcome
	result.OverallStatus = overall
	result.Status = status
	result.PriorityTier = tier
	result.PriorityScore = score
	result.Fields = &fields
	result.Confidence = confidence
	result.OutdatedFields = outdated

	log.WithFields(logrus.Fields{
		"overall":    overall,
		"status":     status,
		"confidence": confidence,
	}).Info("link verified")
	return result
}

// recordFailure writes the audit entry for a retrieval failure. The link goes back to
// unchecked; lastVerifiedAt and verificationCount are left alone.
func (s *Service) recordFailure(ctx context.Context, caller types.Caller, record *types.CanonicalRecord, link types.ListingLink, site types.Site, query string, cause error, stale bool, log *logrus.Entry) LinkResult {
	now := s.cfg.Now()
	msg := cause.Error()
	log.WithError(cause).Warn("retrieval failed")

	status := napmatch.ListingStatusFor(types.StatusError)
	tier, score := priority.Recompute(&link, record, &site, status, stale)

	entry := &types.VerificationLogEntry{
		ID:          uuid.New(),
		LinkID:      link.ID,
		SearchQuery: query,
		FieldMatch: types.FieldMatches{
			Name:    types.FieldError,
			Address: types.FieldError,
			Phone:   types.FieldError,
		},
		OverallStatus: types.StatusError,
		TriggeredBy:   caller.UserID,
		VerifiedAt:    now,
		ErrorMessage:  &msg,
	}
	update := types.ListingUpdate{
		LinkID:            link.ID,
		Status:            status,
		PriorityTier:      tier,
		TierManual:        link.TierManual,
		PriorityScore:     score,
		InferredTier:      priority.InferTier(record.Importance, site.SEOImpact, status),
		DetectedName:      link.DetectedName,
		DetectedAddress:   link.DetectedAddress,
		DetectedPhone:     link.DetectedPhone,
		LastCheckedAt:     &now,
		LastVerifiedAt:    link.LastVerifiedAt,
		VerificationCount: link.VerificationCount,
	}

	result := LinkResult{
		LinkID:        link.ID,
		SiteID:        link.SiteID,
		SiteName:      site.Name,
		Outcome:       OutcomeError,
		OverallStatus: types.StatusError,
		Status:        status,
		PriorityTier:  tier,
		PriorityScore: score,
		ErrorMessage:  msg,
	}
	if err := s.store.RecordVerification(ctx, entry, update); err != nil {
		log.WithError(err).Error("failed to persist failed attempt")
		result.Status = link.Status
		result.PriorityTier = link.PriorityTier
		result.PriorityScore = link.PriorityScore
		result.ErrorMessage = fmt.Sprintf("%s; failed to persist attempt: %v", msg, err)
	}
	return result
}

// detect asks the retrieval collaborator for candidates and reads NAP values off the top
// one, falling back to the listing page for fields the snippet lacked.
func (s *Service) detect(ctx context.Context, record *types.CanonicalRecord, site types.Site) (detection, error) {
	res, err := s.searcher.Search(ctx, retrieval.QueryFor(record), site)
	var det detection
	if res != nil {
		det.query = res.SearchQuery
	}
	if err != nil {
		if errors.Is(err, retrieval.ErrNotConfigured) {
			return det, &ConfigurationError{Message: "no search backend", Cause: err}
		}
		return det, &RetrievalError{Site: site.Name, Cause: err}
	}

	det.detected = extract.FromCandidates(res.Candidates, site.Name)
	if det.detected.Complete() || det.detected.FoundURL == nil || s.pages == nil {
		return det, nil
	}

	page, err := s.pages.Fetch(ctx, *det.detected.FoundURL, site.RequiresBrowser)
	if err != nil {
		det.pageErr = err
		return det, nil
	}
	fromPage, err := extract.FromHTML(page.HTML, site.Name)
	if err != nil {
		det.pageErr = err
		return det, nil
	}
	det.detected = extract.Merge(det.detected, fromPage)
	return det, nil
}

func classify(record *types.CanonicalRecord, det detection) FieldResults {
	field := func(expected string, detected *string, n napmatch.Normalizer) napmatch.FieldResult {
		if detected == nil && det.pageErr != nil {
			return napmatch.FieldError()
		}
		return napmatch.ClassifyField(expected, detected, n)
	}
	return FieldResults{
		Name:    field(record.Name, det.detected.Name, napmatch.NormalizeName),
		Address: field(record.Address.Full(), det.detected.Address, napmatch.NormalizeAddress),
		Phone:   field(record.Phone, det.detected.Phone, napmatch.NormalizePhone),
	}
}

// outdatedFields names the fields whose detected value equals a historical value, i.e.
// the site still shows old information.
func outdatedFields(d extract.Detected, fields FieldResults, snapshots []types.OldNapSnapshot) []string {
	var out []string
	check := func(name string, detected *string, res napmatch.FieldResult, old func(types.OldNapSnapshot) *string, n napmatch.Normalizer) {
		if detected == nil || res.Status == types.FieldMatch {
			return
		}
		for _, snap := range snapshots {
			if v := old(snap); v != nil && n(*v) == n(*detected) {
				out = append(out, name)
				return
			}
		}
	}
	check("name", d.Name, fields.Name, func(s types.OldNapSnapshot) *string { return s.OldName }, napmatch.NormalizeName)
	check("address", d.Address, fields.Address, func(s types.OldNapSnapshot) *string { return s.OldAddress }, napmatch.NormalizeAddress)
	check("phone", d.Phone, fields.Phone, func(s types.OldNapSnapshot) *string { return s.OldPhone }, napmatch.NormalizePhone)
	return out
}

func (s *Service) hasStaleRequest(ctx context.Context, linkID uuid.UUID, log *logrus.Entry) bool {
	reqs, err := s.store.ListCorrectionRequests(ctx, linkID)
	if err != nil {
		log.WithError(err).Warn("failed to load correction requests, scoring without them")
		return false
	}
	return followup.HasStaleRequest(reqs, s.cfg.Now())
}

func siteOf(link types.ListingLink) types.Site {
	if link.Site != nil {
		return *link.Site
	}
	return types.Site{ID: link.SiteID}
}
