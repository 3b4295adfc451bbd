package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/nap-verifier/internal/types"
)

const correctionColumns = `id, link_id, status, requested_at, note, created_at, updated_at`

func scanCorrection(row pgx.Row) (types.CorrectionRequest, error) {
	var r types.CorrectionRequest
	err := row.Scan(&r.ID, &r.LinkID, &r.Status, &r.RequestedAt, &r.Note, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (db *DB) queryCorrections(ctx context.Context, query string, args ...any) ([]types.CorrectionRequest, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list correction requests: %w", err)
	}
	defer rows.Close()

	var out []types.CorrectionRequest
	for rows.Next() {
		r, err := scanCorrection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correction request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListCorrectionRequests returns a link's correction requests, newest first
func (db *DB) ListCorrectionRequests(ctx context.Context, linkID uuid.UUID) ([]types.CorrectionRequest, error) {
	return db.queryCorrections(ctx,
		`SELECT `+correctionColumns+` FROM correction_requests WHERE link_id = $1 ORDER BY created_at DESC`,
		linkID,
	)
}

// ListOpenCorrectionRequests returns every request still awaiting a site
func (db *DB) ListOpenCorrectionRequests(ctx context.Context) ([]types.CorrectionRequest, error) {
	return db.queryCorrections(ctx,
		`SELECT `+correctionColumns+` FROM correction_requests
		 WHERE status NOT IN ($1, $2) ORDER BY requested_at NULLS LAST`,
		types.CorrectionCompleted, types.CorrectionImpossible,
	)
}

// GetCorrectionRequest retrieves a correction request by ID
func (db *DB) GetCorrectionRequest(ctx context.Context, id uuid.UUID) (*types.CorrectionRequest, error) {
	r, err := scanCorrection(db.pool.QueryRow(ctx,
		`SELECT `+correctionColumns+` FROM correction_requests WHERE id = $1`, id,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get correction request: %w", err)
	}
	return &r, nil
}

// SaveCorrectionRequest inserts or updates a correction request. requested_at is never
// cleared once set.
func (db *DB) SaveCorrectionRequest(ctx context.Context, req *types.CorrectionRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Status == "" {
		req.Status = types.CorrectionPending
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO correction_requests (id, link_id, status, requested_at, note)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		     status = $3,
		     requested_at = COALESCE(correction_requests.requested_at, $4),
		     note = $5,
		     updated_at = NOW()
		 RETURNING requested_at, created_at, updated_at`,
		req.ID, req.LinkID, req.Status, req.RequestedAt, req.Note,
	).Scan(&req.RequestedAt, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save correction request: %w", err)
	}
	return nil
}
