package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/nap-verifier/internal/types"
)

const listingColumns = `l.id, l.record_id, l.site_id, l.status, l.priority_tier, l.tier_manual, l.priority_score,
	l.detected_name, l.detected_address, l.detected_phone, l.last_checked_at, l.last_verified_at,
	l.verification_count, l.created_at, l.updated_at,
	s.name, s.url, s.search_template, s.seo_impact, s.requires_browser`

const listingFrom = ` FROM listing_links l JOIN sites s ON s.id = l.site_id`

func scanListing(row pgx.Row) (types.ListingLink, error) {
	var l types.ListingLink
	var s types.Site
	err := row.Scan(
		&l.ID, &l.RecordID, &l.SiteID, &l.Status, &l.PriorityTier, &l.TierManual, &l.PriorityScore,
		&l.DetectedName, &l.DetectedAddress, &l.DetectedPhone, &l.LastCheckedAt, &l.LastVerifiedAt,
		&l.VerificationCount, &l.CreatedAt, &l.UpdatedAt,
		&s.Name, &s.URL, &s.SearchTemplate, &s.SEOImpact, &s.RequiresBrowser,
	)
	if err != nil {
		return l, err
	}
	s.ID = l.SiteID
	l.Site = &s
	return l, nil
}

func collectListings(rows pgx.Rows) ([]types.ListingLink, error) {
	defer rows.Close()
	var out []types.ListingLink
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListListingLinks returns a record's links with their sites, ordered by site name
func (db *DB) ListListingLinks(ctx context.Context, recordID uuid.UUID) ([]types.ListingLink, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+listingColumns+listingFrom+` WHERE l.record_id = $1 ORDER BY s.name`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list listing links: %w", err)
	}
	return collectListings(rows)
}

// GetListingLink retrieves one link with its site
func (db *DB) GetListingLink(ctx context.Context, linkID uuid.UUID) (*types.ListingLink, error) {
	l, err := scanListing(db.pool.QueryRow(ctx,
		`SELECT `+listingColumns+listingFrom+` WHERE l.id = $1`,
		linkID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing link: %w", err)
	}
	return &l, nil
}

const updateListingSQL = `UPDATE listing_links SET
	status = $2, priority_tier = $3, tier_manual = $4, priority_score = $5,
	detected_name = $6, detected_address = $7, detected_phone = $8,
	last_checked_at = $9, last_verified_at = $10, verification_count = $11,
	updated_at = NOW()
	WHERE id = $1`

func updateListingArgs(u types.ListingUpdate) []any {
	return []any{
		u.LinkID, u.Status, u.PriorityTier, u.TierManual, u.PriorityScore,
		u.DetectedName, u.DetectedAddress, u.DetectedPhone,
		u.LastCheckedAt, u.LastVerifiedAt, u.VerificationCount,
	}
}

// UpdateListing writes a link's verification state
func (db *DB) UpdateListing(ctx context.Context, u types.ListingUpdate) error {
	result, err := db.pool.Exec(ctx, updateListingSQL, updateListingArgs(u)...)
	if err != nil {
		return fmt.Errorf("failed to update listing link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("listing link not found: %s", u.LinkID)
	}
	return nil
}

// listingFilter builds the WHERE clause for a mismatch filter. With withStatus false the
// status condition is left out so counts can cover every state.
func listingFilter(f types.MismatchFilter, withStatus bool) (string, []any) {
	where := " WHERE 1=1"
	args := []any{}
	argNum := 1

	if withStatus {
		if f.Status != "" {
			where += fmt.Sprintf(" AND l.status = $%d", argNum)
			args = append(args, f.Status)
		} else {
			where += fmt.Sprintf(" AND l.status <> $%d", argNum)
			args = append(args, types.ListingMatched)
		}
		argNum++
	}
	if f.RecordID != uuid.Nil {
		where += fmt.Sprintf(" AND l.record_id = $%d", argNum)
		args = append(args, f.RecordID)
		argNum++
	}
	if f.SiteID != uuid.Nil {
		where += fmt.Sprintf(" AND l.site_id = $%d", argNum)
		args = append(args, f.SiteID)
	}
	return where, args
}

// ListListings pages through links matching the filter, highest priority score first.
// An empty status matches every link that is not matched.
func (db *DB) ListListings(ctx context.Context, f types.MismatchFilter) ([]types.ListingLink, int, error) {
	if f.Limit == 0 {
		f.Limit = 50
	}
	where, args := listingFilter(f, true)

	var total int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*)`+listingFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count listing links: %w", err)
	}

	query := `SELECT ` + listingColumns + listingFrom + where +
		fmt.Sprintf(" ORDER BY l.priority_score DESC, l.updated_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list listing links: %w", err)
	}
	links, err := collectListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

// CountListingsByStatus counts links per status within the filter's record and site scope
func (db *DB) CountListingsByStatus(ctx context.Context, f types.MismatchFilter) (map[types.ListingStatus]int, error) {
	where, args := listingFilter(f, false)
	rows, err := db.pool.Query(ctx, `SELECT l.status, COUNT(*) FROM listing_links l`+where+` GROUP BY l.status`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count listing links: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.ListingStatus]int)
	for rows.Next() {
		var status types.ListingStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
