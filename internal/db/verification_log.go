package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/nap-verifier/internal/priority"
	"github.com/jonathan/nap-verifier/internal/types"
)

const logColumns = `v.id, v.link_id, v.search_query, v.found_url, v.detected_name, v.detected_address, v.detected_phone,
	v.name_match, v.address_match, v.phone_match, v.overall_status, v.confidence, v.outdated_fields,
	v.triggered_by, v.verified_at, v.error_message`

func scanLogEntry(row pgx.Row) (types.VerificationLogEntry, error) {
	var e types.VerificationLogEntry
	err := row.Scan(
		&e.ID, &e.LinkID, &e.SearchQuery, &e.FoundURL, &e.DetectedName, &e.DetectedAddress, &e.DetectedPhone,
		&e.FieldMatch.Name, &e.FieldMatch.Address, &e.FieldMatch.Phone, &e.OverallStatus, &e.Confidence, &e.OutdatedFields,
		&e.TriggeredBy, &e.VerifiedAt, &e.ErrorMessage,
	)
	return e, err
}

// RecordVerification appends the log entry and applies the link update in one
// transaction, so the log and the link state never disagree.
func (db *DB) RecordVerification(ctx context.Context, entry *types.VerificationLogEntry, update types.ListingUpdate) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	outdated := entry.OutdatedFields
	if outdated == nil {
		outdated = []string{}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO verification_log (id, link_id, search_query, found_url, detected_name, detected_address, detected_phone,
		     name_match, address_match, phone_match, overall_status, confidence, outdated_fields,
		     triggered_by, verified_at, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		entry.ID, entry.LinkID, entry.SearchQuery, entry.FoundURL, entry.DetectedName, entry.DetectedAddress, entry.DetectedPhone,
		entry.FieldMatch.Name, entry.FieldMatch.Address, entry.FieldMatch.Phone, entry.OverallStatus, entry.Confidence, outdated,
		entry.TriggeredBy, entry.VerifiedAt, entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to append verification log: %w", err)
	}

	var storedTier types.PriorityTier
	var storedManual bool
	err = tx.QueryRow(ctx,
		`SELECT priority_tier, tier_manual FROM listing_links WHERE id = $1 FOR UPDATE`,
		update.LinkID,
	).Scan(&storedTier, &storedManual)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("listing link not found: %s", update.LinkID)
	}
	if err != nil {
		return fmt.Errorf("failed to lock listing link: %w", err)
	}
	priority.KeepStoredTier(&update, storedTier, storedManual)

	if _, err := tx.Exec(ctx, updateListingSQL, updateListingArgs(update)...); err != nil {
		return fmt.Errorf("failed to update listing link: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit verification: %w", err)
	}
	return nil
}

// LatestLogEntries returns the newest log entry of each link of the record
func (db *DB) LatestLogEntries(ctx context.Context, recordID uuid.UUID) (map[uuid.UUID]types.VerificationLogEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT ON (v.link_id) `+logColumns+`
		 FROM verification_log v JOIN listing_links l ON l.id = v.link_id
		 WHERE l.record_id = $1
		 ORDER BY v.link_id, v.verified_at DESC`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest log entries: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]types.VerificationLogEntry)
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		out[e.LinkID] = e
	}
	return out, rows.Err()
}

// ListLogEntries returns a link's audit trail, newest first
func (db *DB) ListLogEntries(ctx context.Context, linkID uuid.UUID, limit int) ([]types.VerificationLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+logColumns+` FROM verification_log v WHERE v.link_id = $1 ORDER BY v.verified_at DESC LIMIT $2`,
		linkID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	defer rows.Close()

	var out []types.VerificationLogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
