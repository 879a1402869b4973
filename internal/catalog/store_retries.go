package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const retryColumns = "id, entry_id, attempts, scheduled_at, force, block_reason, claimed_by, claimed_at, created_at, updated_at"

// GetRetryRecord fetches the thumbnail retry record for a catalog entry, or
// nil when none exists.
func (s *Store) GetRetryRecord(ctx context.Context, entryID int64) (*RetryRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+retryColumns+` FROM retry_records WHERE entry_id = ?`, entryID)
	record, err := scanRetryRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get retry record: %w", err)
	}
	return record, nil
}

// ScheduleRetry upserts a retry record for an entry with the given attempt
// count and next-due time. A scheduled record never carries a block reason.
func (s *Store) ScheduleRetry(ctx context.Context, entryID int64, attempts int, scheduledAt time.Time, force bool) error {
	timestamp := nowStamp()
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO retry_records (entry_id, attempts, scheduled_at, force, block_reason, created_at, updated_at)
         VALUES (?, ?, ?, ?, '', ?, ?)
         ON CONFLICT(entry_id) DO UPDATE SET
             attempts = excluded.attempts,
             scheduled_at = excluded.scheduled_at,
             force = excluded.force,
             block_reason = '',
             claimed_by = NULL,
             claimed_at = NULL,
             updated_at = excluded.updated_at`,
		entryID,
		attempts,
		scheduledAt.UTC().Format(time.RFC3339Nano),
		boolToInt(force),
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}
	return nil
}

// MarkRetryExhausted blocks further automatic retries for an entry while
// keeping the record visible for inspection and manual override.
func (s *Store) MarkRetryExhausted(ctx context.Context, entryID int64, reason string) error {
	if reason == "" {
		return errors.New("exhaustion reason must not be empty")
	}
	timestamp := nowStamp()
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO retry_records (entry_id, attempts, scheduled_at, force, block_reason, created_at, updated_at)
         VALUES (?, 0, NULL, 0, ?, ?, ?)
         ON CONFLICT(entry_id) DO UPDATE SET
             scheduled_at = NULL,
             block_reason = excluded.block_reason,
             claimed_by = NULL,
             claimed_at = NULL,
             updated_at = excluded.updated_at`,
		entryID,
		reason,
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("mark retry exhausted: %w", err)
	}
	return nil
}

// ClearRetry removes an entry's retry record after a successful generation.
func (s *Store) ClearRetry(ctx context.Context, entryID int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM retry_records WHERE entry_id = ?`, entryID); err != nil {
		return fmt.Errorf("clear retry: %w", err)
	}
	return nil
}

// DueRetries lists unclaimed, unblocked records whose scheduled time has
// passed, oldest first.
func (s *Store) DueRetries(ctx context.Context, now time.Time, limit int) ([]*RetryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+retryColumns+` FROM retry_records
         WHERE block_reason = '' AND claimed_by IS NULL
           AND scheduled_at IS NOT NULL AND scheduled_at <= ?
         ORDER BY scheduled_at LIMIT ?`,
		now.UTC().Format(time.RFC3339Nano),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("due retries: %w", err)
	}
	defer rows.Close()

	var records []*RetryRecord
	for rows.Next() {
		record, err := scanRetryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ClaimRetry marks a due record as owned by a sweep worker. Returns false when
// another worker already took it.
func (s *Store) ClaimRetry(ctx context.Context, id int64, owner string) (bool, error) {
	if owner == "" {
		return false, errors.New("claim owner must not be empty")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE retry_records SET claimed_by = ?, claimed_at = ?, updated_at = ?
         WHERE id = ? AND claimed_by IS NULL AND block_reason = ''`,
		owner,
		nowStamp(),
		nowStamp(),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("claim retry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// ReleaseRetryClaims clears claims older than the cutoff so a crashed sweep
// does not strand records forever.
func (s *Store) ReleaseRetryClaims(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE retry_records SET claimed_by = NULL, claimed_at = NULL, updated_at = ?
         WHERE claimed_at IS NOT NULL AND claimed_at < ?`,
		nowStamp(),
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("release retry claims: %w", err)
	}
	return res.RowsAffected()
}

// BlockedRetries lists records whose automatic retries are exhausted.
func (s *Store) BlockedRetries(ctx context.Context) ([]*RetryRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+retryColumns+` FROM retry_records WHERE block_reason != '' ORDER BY updated_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("blocked retries: %w", err)
	}
	defer rows.Close()

	var records []*RetryRecord
	for rows.Next() {
		record, err := scanRetryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRetryRecord(scanner interface{ Scan(dest ...any) error }) (*RetryRecord, error) {
	var (
		id           int64
		entryID      int64
		attempts     int
		scheduledRaw sql.NullString
		force        int
		blockReason  sql.NullString
		claimedBy    sql.NullString
		claimedRaw   sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&entryID,
		&attempts,
		&scheduledRaw,
		&force,
		&blockReason,
		&claimedBy,
		&claimedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &RetryRecord{
		ID:          id,
		EntryID:     entryID,
		Attempts:    attempts,
		ScheduledAt: timePtrFromNull(scheduledRaw),
		Force:       force != 0,
		BlockReason: blockReason.String,
		ClaimedBy:   claimedBy.String,
		ClaimedAt:   timePtrFromNull(claimedRaw),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}
