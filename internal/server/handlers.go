package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/nap-verifier/internal/server/middleware"
	"github.com/jonathan/nap-verifier/internal/types"
	"github.com/jonathan/nap-verifier/internal/verification"
)

// CorrectionUpdateRequest is the body of PATCH /correction-requests/{id}.
type CorrectionUpdateRequest struct {
	Status types.CorrectionStatus `json:"status"`
	Note   string                 `json:"note,omitempty"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.log.WithError(err).Warn("health check failed")
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVerify runs verification for one canonical record.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerFrom(w, r)
	if !ok {
		return
	}
	recordID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req types.RunRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.serviceError(w, r, err)
		return
	}

	result, err := s.svc.RunVerification(r.Context(), caller, recordID, verification.RunOptions{
		SiteIDs:      req.SiteIDs,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleVerificationSummary returns the per-site picture for one record.
func (s *Server) handleVerificationSummary(w http.ResponseWriter, r *http.Request) {
	recordID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	summary, err := s.svc.GetVerificationSummary(r.Context(), recordID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

// handleListMismatches returns a page of links ordered by priority score.
// Query: status, record_id, site_id, limit, offset.
func (s *Server) handleListMismatches(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMismatchFilter(r)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	page, err := s.svc.ListMismatches(r.Context(), filter)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, page)
}

// handleOverrideListing applies an operator's status and/or tier edit.
func (s *Server) handleOverrideListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerFrom(w, r)
	if !ok {
		return
	}
	linkID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req types.OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == nil && req.PriorityTier == nil {
		s.errorResponse(w, http.StatusBadRequest, "status or priority_tier is required")
		return
	}

	link, err := s.svc.OverrideListing(r.Context(), caller, linkID, req)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, link)
}

// handleListingHistory returns a link's verification attempts, newest first.
func (s *Server) handleListingHistory(w http.ResponseWriter, r *http.Request) {
	linkID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit, err := optionalInt(r.URL.Query().Get("limit"))
	if err != nil {
		s.serviceError(w, r, &ErrValidation{Field: "limit", Message: "must be an integer"})
		return
	}

	entries, err := s.svc.ListingHistory(r.Context(), linkID, limit)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"link_id": linkID,
		"entries": entries,
	})
}

// handleFollowUps returns overdue correction requests, urgent first.
func (s *Server) handleFollowUps(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.FollowUps(r.Context())
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"follow_ups": items,
		"count":      len(items),
	})
}

// handleUpdateCorrectionRequest moves a correction request to a new status.
func (s *Server) handleUpdateCorrectionRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CorrectionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		s.errorResponse(w, http.StatusBadRequest, "status is required")
		return
	}

	updated, err := s.svc.UpdateCorrectionRequest(r.Context(), caller, id, req.Status, req.Note)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

func (s *Server) callerFrom(w http.ResponseWriter, r *http.Request) (types.Caller, bool) {
	caller, err := middleware.GetCaller(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return types.Caller{}, false
	}
	return caller, true
}

func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func decodeOptionalBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func parseMismatchFilter(r *http.Request) (types.MismatchFilter, error) {
	q := r.URL.Query()
	filter := types.MismatchFilter{Status: types.ListingStatus(q.Get("status"))}

	var err error
	if filter.RecordID, err = optionalUUID(q.Get("record_id")); err != nil {
		return filter, &ErrValidation{Field: "record_id", Message: "must be a UUID"}
	}
	if filter.SiteID, err = optionalUUID(q.Get("site_id")); err != nil {
		return filter, &ErrValidation{Field: "site_id", Message: "must be a UUID"}
	}
	if filter.Limit, err = optionalInt(q.Get("limit")); err != nil {
		return filter, &ErrValidation{Field: "limit", Message: "must be an integer"}
	}
	if filter.Offset, err = optionalInt(q.Get("offset")); err != nil {
		return filter, &ErrValidation{Field: "offset", Message: "must be an integer"}
	}
	return filter, nil
}

func optionalUUID(v string) (uuid.UUID, error) {
	if v == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(v)
}

func optionalInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
