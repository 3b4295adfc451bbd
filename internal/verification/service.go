// Package verification orchestrates NAP verification runs for canonical records and their
// listing links: cache checks, retrieval, matching, state transitions and the audit log.
package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/nap-verifier/internal/fetch"
	"github.com/jonathan/nap-verifier/internal/retrieval"
	"github.com/jonathan/nap-verifier/internal/types"
)

const (
	// DefaultCacheWindow is how long a successful verification is trusted.
	DefaultCacheWindow = 24 * time.Hour
	// DefaultConcurrency bounds parallel link verifications within one run.
	DefaultConcurrency = 4
)

// PageFetcher loads a listing page for enrichment when the search snippet is incomplete.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, requiresBrowser bool) (*fetch.Result, error)
}

// Config tunes the orchestrator.
type Config struct {
	Concurrency int
	CacheWindow time.Duration
	// Now is the clock; tests replace it.
	Now func() time.Time
}

// Service is the verification orchestrator.
type Service struct {
	store    Store
	searcher retrieval.Searcher
	pages    PageFetcher
	cfg      Config
	log      *logrus.Entry
}

// NewService creates the orchestrator. A nil searcher behaves as unconfigured and a nil
// page fetcher disables page enrichment.
func NewService(store Store, searcher retrieval.Searcher, pages PageFetcher, cfg Config, logger *logrus.Logger) *Service {
	if searcher == nil {
		searcher = retrieval.Unconfigured{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.CacheWindow <= 0 {
		cfg.CacheWindow = DefaultCacheWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store:    store,
		searcher: searcher,
		pages:    pages,
		cfg:      cfg,
		log:      logger.WithField("component", "verification"),
	}
}

// RunOptions selects which links to verify.
type RunOptions struct {
	SiteIDs      []uuid.UUID
	ForceRefresh bool
}

// RunVerification verifies a canonical record's listing links. A failing link never
// aborts the others; the result always carries a summary.
func (s *Service) RunVerification(ctx context.Context, caller types.Caller, recordID uuid.UUID, opts RunOptions) (*RunResult, error) {
	if !caller.CanTrigger() {
		return nil, &ForbiddenError{Caller: caller.UserID, Action: "run verification"}
	}

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
	links, err = filterBySite(links, opts.SiteIDs)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.store.ListOldSnapshots(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load NAP history: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{
		"record_id":     recordID,
		"links":         len(links),
		"force_refresh": opts.ForceRefresh,
		"triggered_by":  caller.UserID,
	})
	log.Info("verification run started")

	results := make([]LinkResult, len(links))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i := range links {
		g.Go(func() error {
			results[i] = s.verifyLink(ctx, caller, record, links[i], snapshots, opts.ForceRefresh)
			return nil
		})
	}
	_ = g.Wait()

	run := &RunResult{RecordID: recordID, Results: results, Summary: summarize(results)}
	log.WithFields(logrus.Fields{
		"success": run.Summary.Success,
		"error":   run.Summary.Error,
		"skipped": run.Summary.Skipped,
	}).Info("verification run finished")
	return run, nil
}

func filterBySite(links []types.ListingLink, siteIDs []uuid.UUID) ([]types.ListingLink, error) {
	if len(siteIDs) == 0 {
		return links, nil
	}
	bySite := make(map[uuid.UUID]types.ListingLink, len(links))
	for _, l := range links {
		bySite[l.SiteID] = l
	}

	out := make([]types.ListingLink, 0, len(siteIDs))
	seen := make(map[uuid.UUID]bool, len(siteIDs))
	for _, id := range siteIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		l, ok := bySite[id]
		if !ok {
			return nil, &NotFoundError{Kind: "listing link for site", ID: id}
		}
		out = append(out, l)
	}
	return out, nil
}

// BatchResult reports a multi-record run.
type BatchResult struct {
	Records       int     `json:"records"`
	RecordsFailed int     `json:"records_failed"`
	Summary       Summary `json:"summary"`
	Cancelled     bool    `json:"cancelled"`
}

// VerifyAll runs RunVerification for every canonical record in sequence. Cancelling ctx
// stops new runs from starting; the run in flight finishes and persists, and the counts
// cover whatever completed.
func (s *Service) VerifyAll(ctx context.Context, caller types.Caller, opts RunOptions) (*BatchResult, error) {
	if !caller.CanTrigger() {
		return nil, &ForbiddenError{Caller: caller.UserID, Action: "run verification"}
	}

	ids, err := s.store.ListCanonicalRecordIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list canonical records: %w", err)
	}

	batch := &BatchResult{}
	for _, id := range ids {
		if ctx.Err() != nil {
			batch.Cancelled = true
			s.log.WithField("completed", batch.Records).Warn("batch verification cancelled")
			break
		}

		run, err := s.RunVerification(context.WithoutCancel(ctx), caller, id, opts)
		batch.Records++
		if err != nil {
			batch.RecordsFailed++
			s.log.WithError(err).WithField("record_id", id).Error("record verification failed")
			continue
		}
		batch.Summary.add(run.Summary)
	}
	return batch, nil
}
