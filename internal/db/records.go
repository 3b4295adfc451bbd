package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/nap-verifier/internal/types"
)

// CreateCanonicalRecord inserts a record and fills in its ID and UpdatedAt
func (db *DB) CreateCanonicalRecord(ctx context.Context, r *types.CanonicalRecord) error {
	if r.Importance == "" {
		r.Importance = "medium"
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO canonical_records (name, prefecture, city, street, phone, importance)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, updated_at`,
		r.Name, r.Address.Prefecture, r.Address.City, r.Address.Street, r.Phone, r.Importance,
	).Scan(&r.ID, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create canonical record: %w", err)
	}
	return nil
}

// GetCanonicalRecord retrieves a canonical record by ID
func (db *DB) GetCanonicalRecord(ctx context.Context, id uuid.UUID) (*types.CanonicalRecord, error) {
	var r types.CanonicalRecord
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, prefecture, city, street, phone, importance, updated_at
		 FROM canonical_records WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Name, &r.Address.Prefecture, &r.Address.City, &r.Address.Street, &r.Phone, &r.Importance, &r.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get canonical record: %w", err)
	}
	return &r, nil
}

// ListCanonicalRecordIDs returns every record ID, oldest first
func (db *DB) ListCanonicalRecordIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := db.pool.Query(ctx, `SELECT id FROM canonical_records ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list canonical records: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan canonical record id: %w", err)
	}
	return ids, nil
}

// CreateSite inserts a listing site, or updates it when the name already exists
func (db *DB) CreateSite(ctx context.Context, s *types.Site) error {
	if s.SEOImpact == "" {
		s.SEOImpact = "none"
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO sites (name, url, search_template, seo_impact, requires_browser)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET url = $2, search_template = $3, seo_impact = $4, requires_browser = $5
		 RETURNING id`,
		s.Name, s.URL, s.SearchTemplate, s.SEOImpact, s.RequiresBrowser,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create site %s: %w", s.Name, err)
	}
	return nil
}

// CreateListingLink associates a record with a site. Linking the same pair twice returns
// the existing link.
func (db *DB) CreateListingLink(ctx context.Context, recordID, siteID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO listing_links (record_id, site_id)
		 VALUES ($1, $2)
		 ON CONFLICT (record_id, site_id) DO UPDATE SET updated_at = listing_links.updated_at
		 RETURNING id`,
		recordID, siteID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create listing link: %w", err)
	}
	return id, nil
}

// CreateOldSnapshot stores a superseded NAP value for a record
func (db *DB) CreateOldSnapshot(ctx context.Context, s *types.OldNapSnapshot) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO old_nap_snapshots (record_id, old_name, old_address, old_phone, changed_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		 RETURNING id, changed_at`,
		s.RecordID, s.OldName, s.OldAddress, s.OldPhone, nullTime(s.ChangedAt),
	).Scan(&s.ID, &s.ChangedAt)
	if err != nil {
		return fmt.Errorf("failed to create NAP snapshot: %w", err)
	}
	return nil
}

// ListOldSnapshots returns a record's NAP history, newest first
func (db *DB) ListOldSnapshots(ctx context.Context, recordID uuid.UUID) ([]types.OldNapSnapshot, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, record_id, old_name, old_address, old_phone, changed_at
		 FROM old_nap_snapshots WHERE record_id = $1 ORDER BY changed_at DESC`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list NAP snapshots: %w", err)
	}
	defer rows.Close()

	var out []types.OldNapSnapshot
	for rows.Next() {
		var s types.OldNapSnapshot
		if err := rows.Scan(&s.ID, &s.RecordID, &s.OldName, &s.OldAddress, &s.OldPhone, &s.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan NAP snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
