package verification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/nap-verifier/internal/types"
)

// Store is the persistence the engine needs. Getters return (nil, nil) when the row does
// not exist.
type Store interface {
	GetCanonicalRecord(ctx context.Context, id uuid.UUID) (*types.CanonicalRecord, error)
	ListCanonicalRecordIDs(ctx context.Context) ([]uuid.UUID, error)
	ListOldSnapshots(ctx context.Context, recordID uuid.UUID) ([]types.OldNapSnapshot, error)

	// ListListingLinks returns the record's links with Site populated.
	ListListingLinks(ctx context.Context, recordID uuid.UUID) ([]types.ListingLink, error)
	GetListingLink(ctx context.Context, linkID uuid.UUID) (*types.ListingLink, error)
	UpdateListing(ctx context.Context, update types.ListingUpdate) error
	// ListListings pages through links matching the filter, highest priority score first.
	// An empty status matches every link that is not matched.
	ListListings(ctx context.Context, filter types.MismatchFilter) ([]types.ListingLink, int, error)
	CountListingsByStatus(ctx context.Context, filter types.MismatchFilter) (map[types.ListingStatus]int, error)

	// RecordVerification appends the log entry and applies the link update atomically.
	RecordVerification(ctx context.Context, entry *types.VerificationLogEntry, update types.ListingUpdate) error
	// LatestLogEntries returns the newest entry per link of the record, keyed by link ID.
	LatestLogEntries(ctx context.Context, recordID uuid.UUID) (map[uuid.UUID]types.VerificationLogEntry, error)
	// ListLogEntries returns up to limit entries for one link, newest first.
	ListLogEntries(ctx context.Context, linkID uuid.UUID, limit int) ([]types.VerificationLogEntry, error)

	ListCorrectionRequests(ctx context.Context, linkID uuid.UUID) ([]types.CorrectionRequest, error)
	ListOpenCorrectionRequests(ctx context.Context) ([]types.CorrectionRequest, error)
	GetCorrectionRequest(ctx context.Context, id uuid.UUID) (*types.CorrectionRequest, error)
	SaveCorrectionRequest(ctx context.Context, req *types.CorrectionRequest) error
}
