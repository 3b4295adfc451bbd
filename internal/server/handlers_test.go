package server

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/nap-verifier/internal/followup"
	"github.com/jonathan/nap-verifier/internal/types"
	"github.com/jonathan/nap-verifier/internal/verification"
)

func TestHandleVerify(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, nil, nil)
	recordID := uuid.New()
	siteID := uuid.New()

	w := doRequest(t, h, http.MethodPost, "/records/"+recordID.String()+"/verify", types.RunRequest{
		SiteIDs:      []uuid.UUID{siteID},
		ForceRefresh: true,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, testOperator, svc.gotCaller)
	assert.Equal(t, recordID, svc.gotID)
	assert.Equal(t, []uuid.UUID{siteID}, svc.gotOpts.SiteIDs)
	assert.True(t, svc.gotOpts.ForceRefresh)

	run := decodeBody[verification.RunResult](t, w)
	assert.Equal(t, 1, run.Summary.Success)
	assert.Equal(t, verification.OutcomeVerified, run.Results[0].Outcome)
}

func TestHandleVerify_EmptyBody(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, nil, nil)

	w := doRequest(t, h, http.MethodPost, "/records/"+uuid.NewString()+"/verify", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.gotOpts.SiteIDs)
	assert.False(t, svc.gotOpts.ForceRefresh)
}

func TestHandleVerify_NilSiteID(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, nil, nil)

	w := doRequest(t, h, http.MethodPost, "/records/"+uuid.NewString()+"/verify", map[string]any{
		"site_ids": []string{uuid.Nil.String()},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, uuid.Nil, svc.gotID, "service must not be called")
}

func TestHandleVerify_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		err      error
		expected int
	}{
		{name: "bad record id", path: "/records/not-a-uuid/verify", expected: http.StatusBadRequest},
		{name: "missing record", path: "/records/" + uuid.NewString() + "/verify", err: &verification.NotFoundError{Kind: "canonical record"}, expected: http.StatusNotFound},
		{name: "viewer", path: "/records/" + uuid.NewString() + "/verify", err: &verification.ForbiddenError{Action: "run verification"}, expected: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeService{err: tt.err}, nil, nil)
			w := doRequest(t, h, http.MethodPost, tt.path, nil)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestHandleVerificationSummary(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, nil, nil)
	recordID := uuid.New()

	w := doRequest(t, h, http.MethodGet, "/records/"+recordID.String()+"/verification-summary", nil)

	require.Equal(t, http.StatusOK, w.Code)
	summary := decodeBody[verification.RecordSummary](t, w)
	assert.Equal(t, recordID, summary.Record.ID)
	assert.Equal(t, 2, summary.StatusCounts[types.ListingMatched])
}

func TestHandleListMismatches_ParsesQuery(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, nil, nil)
	recordID := uuid.New()

	w := doRequest(t, h, http.MethodGet, "/mismatches?status=mismatched&record_id="+recordID.String()+"&limit=10&offset=20", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.MismatchFilter{
		Status:   types.ListingMismatched,
		RecordID: recordID,
		Limit:    10,
		Offset:   20,
	}, svc.gotFilter)

	page := decodeBody[map[string]any](t, w)
	assert.Equal(t, []any{}, page["items"])
}

func TestHandleListMismatches_BadQuery(t *testing.T) {
	h := newTestServer(t, &fakeService{}, nil, nil)

	for _, q := range []string{"limit=ten", "offset=-x", "record_id=nope", "site_id=nope"} {
		t.Run(q, func(t *testing.T) {
			w := doRequest(t, h, http.MethodGet, "/mismatches?"+q, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleOverrideListing(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, nil, nil)
	linkID := uuid.New()

	w := doRequest(t, h, http.MethodPatch, "/listings/"+linkID.String(), map[string]string{
		"status":        "mismatched",
		"priority_tier": "urgent",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, svc.gotOverride.Status)
	require.NotNil(t, svc.gotOverride.PriorityTier)
	assert.Equal(t, types.ListingMismatched, *svc.gotOverride.Status)
	assert.Equal(t, types.TierUrgent, *svc.gotOverride.PriorityTier)
	assert.Equal(t, linkID, svc.gotID)

	link := decodeBody[types.ListingLink](t, w)
	assert.Equal(t, 130, link.PriorityScore)
}

func TestHandleOverrideListing_RequiresAField(t *testing.T) {
	h := newTestServer(t, &fakeService{}, nil, nil)

	w := doRequest(t, h, http.MethodPatch, "/listings/"+uuid.NewString(), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListingHistory(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, nil, nil)
	linkID := uuid.New()

	w := doRequest(t, h, http.MethodGet, "/listings/"+linkID.String()+"/history?limit=5", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, linkID, svc.gotID)
	assert.Equal(t, 5, svc.gotLimit)
	body := decodeBody[map[string]any](t, w)
	assert.Len(t, body["entries"], 1)

	w = doRequest(t, h, http.MethodGet, "/listings/"+linkID.String()+"/history?limit=all", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleFollowUps(t *testing.T) {
	svc := &fakeService{followUps: []followup.FollowUp{
		{Request: types.CorrectionRequest{ID: uuid.New()}, DaysElapsed: 15, Urgent: true},
		{Request: types.CorrectionRequest{ID: uuid.New()}, DaysElapsed: 8},
	}}
	h := newTestServer(t, svc, nil, nil)

	w := doRequest(t, h, http.MethodGet, "/follow-ups", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[map[string]any](t, w)
	assert.EqualValues(t, 2, body["count"])
}

func TestHandleUpdateCorrectionRequest(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc, nil, nil)
	id := uuid.New()

	w := doRequest(t, h, http.MethodPatch, "/correction-requests/"+id.String(), CorrectionUpdateRequest{
		Status: types.CorrectionRequested,
		Note:   "sent via web form",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, svc.gotID)
	assert.Equal(t, types.CorrectionRequested, svc.gotStatus)
	assert.Equal(t, "sent via web form", svc.gotNote)
}

func TestHandleUpdateCorrectionRequest_Errors(t *testing.T) {
	h := newTestServer(t, &fakeService{}, nil, nil)
	w := doRequest(t, h, http.MethodPatch, "/correction-requests/"+uuid.NewString(), map[string]string{"note": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h = newTestServer(t, &fakeService{err: &verification.InvalidInputError{Field: "status", Message: "unknown"}}, nil, nil)
	w = doRequest(t, h, http.MethodPatch, "/correction-requests/"+uuid.NewString(), map[string]string{"status": "sent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
