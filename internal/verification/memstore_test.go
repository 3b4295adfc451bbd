package verification

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/nap-verifier/internal/extract"
	"github.com/jonathan/nap-verifier/internal/fetch"
	"github.com/jonathan/nap-verifier/internal/priority"
	"github.com/jonathan/nap-verifier/internal/retrieval"
	"github.com/jonathan/nap-verifier/internal/types"
)

// memStore is an in-memory Store for orchestrator tests.
type memStore struct {
	mu          sync.Mutex
	records     map[uuid.UUID]types.CanonicalRecord
	recordOrder []uuid.UUID
	sites       map[uuid.UUID]types.Site
	links       map[uuid.UUID]types.ListingLink
	linkOrder   []uuid.UUID
	snapshots   []types.OldNapSnapshot
	log         []types.VerificationLogEntry
	corrections map[uuid.UUID]types.CorrectionRequest

	recordErr error
}

func newMemStore() *memStore {
	return &memStore{
		records:     make(map[uuid.UUID]types.CanonicalRecord),
		sites:       make(map[uuid.UUID]types.Site),
		links:       make(map[uuid.UUID]types.ListingLink),
		corrections: make(map[uuid.UUID]types.CorrectionRequest),
	}
}

func (m *memStore) addRecord(r types.CanonicalRecord) {
	m.records[r.ID] = r
	m.recordOrder = append(m.recordOrder, r.ID)
}

func (m *memStore) addSite(s types.Site) {
	m.sites[s.ID] = s
}

func (m *memStore) addLink(l types.ListingLink) {
	m.links[l.ID] = l
	m.linkOrder = append(m.linkOrder, l.ID)
}

func (m *memStore) link(id uuid.UUID) types.ListingLink {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[id]
}

func (m *memStore) entriesFor(linkID uuid.UUID) []types.VerificationLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.VerificationLogEntry
	for _, e := range m.log {
		if e.LinkID == linkID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) withSite(l types.ListingLink) types.ListingLink {
	if s, ok := m.sites[l.SiteID]; ok {
		l.Site = &s
	}
	return l
}

func (m *memStore) GetCanonicalRecord(_ context.Context, id uuid.UUID) (*types.CanonicalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) ListCanonicalRecordIDs(context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.recordOrder...), nil
}

func (m *memStore) ListOldSnapshots(_ context.Context, recordID uuid.UUID) ([]types.OldNapSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.OldNapSnapshot
	for _, s := range m.snapshots {
		if s.RecordID == recordID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListListingLinks(_ context.Context, recordID uuid.UUID) ([]types.ListingLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.ListingLink
	for _, id := range m.linkOrder {
		if l := m.links[id]; l.RecordID == recordID {
			out = append(out, m.withSite(l))
		}
	}
	return out, nil
}

func (m *memStore) GetListingLink(_ context.Context, linkID uuid.UUID) (*types.ListingLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[linkID]
	if !ok {
		return nil, nil
	}
	l = m.withSite(l)
	return &l, nil
}

func (m *memStore) applyLocked(u types.ListingUpdate) error {
	l, ok := m.links[u.LinkID]
	if !ok {
		return errors.New("no such link")
	}
	l.Status = u.Status
	l.PriorityTier = u.PriorityTier
	l.TierManual = u.TierManual
	l.PriorityScore = u.PriorityScore
	l.DetectedName = u.DetectedName
	l.DetectedAddress = u.DetectedAddress
	l.DetectedPhone = u.DetectedPhone
	l.LastCheckedAt = u.LastCheckedAt
	l.LastVerifiedAt = u.LastVerifiedAt
	l.VerificationCount = u.VerificationCount
	m.links[u.LinkID] = l
	return nil
}

func (m *memStore) UpdateListing(_ context.Context, u types.ListingUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(u)
}

func (m *memStore) matching(f types.MismatchFilter, withStatus bool) []types.ListingLink {
	var out []types.ListingLink
	for _, id := range m.linkOrder {
		l := m.links[id]
		if f.RecordID != uuid.Nil && l.RecordID != f.RecordID {
			continue
		}
		if f.SiteID != uuid.Nil && l.SiteID != f.SiteID {
			continue
		}
		if withStatus {
			if f.Status == "" && l.Status == types.ListingMatched {
				continue
			}
			if f.Status != "" && l.Status != f.Status {
				continue
			}
		}
		out = append(out, m.withSite(l))
	}
	return out
}

func (m *memStore) ListListings(_ context.Context, f types.MismatchFilter) ([]types.ListingLink, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(f, true)
	sort.SliceStable(all, func(i, j int) bool { return all[i].PriorityScore > all[j].PriorityScore })
	total := len(all)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return all[f.Offset:end], total, nil
}

func (m *memStore) CountListingsByStatus(_ context.Context, f types.MismatchFilter) (map[types.ListingStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[types.ListingStatus]int)
	for _, l := range m.matching(f, false) {
		counts[l.Status]++
	}
	return counts, nil
}

func (m *memStore) RecordVerification(_ context.Context, entry *types.VerificationLogEntry, u types.ListingUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	stored, ok := m.links[u.LinkID]
	if !ok {
		return errors.New("no such link")
	}
	priority.KeepStoredTier(&u, stored.PriorityTier, stored.TierManual)
	if err := m.applyLocked(u); err != nil {
		return err
	}
	m.log = append(m.log, *entry)
	return nil
}

func (m *memStore) LatestLogEntries(_ context.Context, recordID uuid.UUID) (map[uuid.UUID]types.VerificationLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]types.VerificationLogEntry)
	for _, e := range m.log {
		if m.links[e.LinkID].RecordID != recordID {
			continue
		}
		if prev, ok := out[e.LinkID]; !ok || !e.VerifiedAt.Before(prev.VerifiedAt) {
			out[e.LinkID] = e
		}
	}
	return out, nil
}

func (m *memStore) ListLogEntries(_ context.Context, linkID uuid.UUID, limit int) ([]types.VerificationLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.VerificationLogEntry
	for i := len(m.log) - 1; i >= 0 && len(out) < limit; i-- {
		if m.log[i].LinkID == linkID {
			out = append(out, m.log[i])
		}
	}
	return out, nil
}

func (m *memStore) ListCorrectionRequests(_ context.Context, linkID uuid.UUID) ([]types.CorrectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.CorrectionRequest
	for _, r := range m.corrections {
		if r.LinkID == linkID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListOpenCorrectionRequests(context.Context) ([]types.CorrectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.CorrectionRequest
	for _, r := range m.corrections {
		if r.Status.Open() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetCorrectionRequest(_ context.Context, id uuid.UUID) (*types.CorrectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.corrections[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) SaveCorrectionRequest(_ context.Context, req *types.CorrectionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corrections[req.ID] = *req
	return nil
}

// stubSearcher answers per site name.
type stubSearcher struct {
	mu      sync.Mutex
	results map[string][]extract.Candidate
	errs    map[string]error
	calls   int
	onCall  func()
}

func (s *stubSearcher) Search(_ context.Context, q retrieval.Query, site types.Site) (*retrieval.Result, error) {
	s.mu.Lock()
	s.calls++
	onCall := s.onCall
	s.mu.Unlock()
	if onCall != nil {
		onCall()
	}

	res := &retrieval.Result{SearchQuery: retrieval.BuildSearchQuery(q, site)}
	if err := s.errs[site.Name]; err != nil {
		return res, err
	}
	res.Candidates = s.results[site.Name]
	return res, nil
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubPages serves canned listing pages.
type stubPages struct {
	pages map[string]string
	err   error
}

func (p *stubPages) Fetch(_ context.Context, url string, _ bool) (*fetch.Result, error) {
	if p.err != nil {
		return nil, p.err
	}
	html, ok := p.pages[url]
	if !ok {
		return nil, &fetch.Error{URL: url, Message: "HTTP 404"}
	}
	return &fetch.Result{URL: url, HTML: html, StatusCode: 200}, nil
}

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }
