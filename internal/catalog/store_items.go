package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, session_id, origin, source_locator, status, attempts, lock_owner, locked_at, entry_id, error_message, created_at, updated_at"

// AddItem inserts a pending selection item for a discovered file. When the
// (session, locator) pair already exists the existing item is returned
// untouched, so re-running discovery over the same session is idempotent.
func (s *Store) AddItem(ctx context.Context, sessionID int64, origin Origin, sourceLocator string) (*SelectionItem, error) {
	timestamp := nowStamp()
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO selection_items (session_id, origin, source_locator, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(session_id, source_locator) DO NOTHING`,
		sessionID,
		origin,
		sourceLocator,
		ItemPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return s.ItemByLocator(ctx, sessionID, sourceLocator)
}

// ItemByLocator fetches an item by its unique (session, locator) pair.
func (s *Store) ItemByLocator(ctx context.Context, sessionID int64, sourceLocator string) (*SelectionItem, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM selection_items WHERE session_id = ? AND source_locator = ?`,
		sessionID,
		sourceLocator,
	)
	item, err := scanSelectionItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("item by locator: %w", err)
	}
	return item, nil
}

// GetItem fetches a selection item by identifier. Returns nil when absent.
func (s *Store) GetItem(ctx context.Context, id int64) (*SelectionItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM selection_items WHERE id = ?`, id)
	item, err := scanSelectionItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// MarkSessionItemsEnqueued promotes a session's pending items to enqueued once
// expansion completes, and returns how many were promoted.
func (s *Store) MarkSessionItemsEnqueued(ctx context.Context, sessionID int64) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE selection_items SET status = ?, updated_at = ? WHERE session_id = ? AND status = ?`,
		ItemEnqueued,
		nowStamp(),
		sessionID,
		ItemPending,
	)
	if err != nil {
		return 0, fmt.Errorf("mark items enqueued: %w", err)
	}
	return res.RowsAffected()
}

// ClaimNextItem atomically transitions the lowest-id enqueued item of a
// session to running, stamping the lock owner and lock time and incrementing
// the attempt counter. The conditional update affects exactly one row or
// means another worker won the race, in which case the next candidate is
// tried. Returns nil when no enqueued items remain.
func (s *Store) ClaimNextItem(ctx context.Context, sessionID int64, owner string) (*SelectionItem, error) {
	if owner == "" {
		return nil, errors.New("claim owner must not be empty")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var candidateID int64
		err := s.db.QueryRowContext(
			ctx,
			`SELECT id FROM selection_items
             WHERE session_id = ? AND status = ? ORDER BY id LIMIT 1`,
			sessionID,
			ItemEnqueued,
		).Scan(&candidateID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("select claim candidate: %w", err)
		}

		claimed, err := s.ClaimItem(ctx, candidateID, owner)
		if err != nil {
			return nil, err
		}
		if claimed != nil {
			return claimed, nil
		}
		// Lost the race for this candidate; try the next one.
	}
}

// ClaimItem attempts to claim one specific enqueued item. Returns nil when the
// item was already claimed or is no longer enqueued; exactly one concurrent
// caller can succeed.
func (s *Store) ClaimItem(ctx context.Context, id int64, owner string) (*SelectionItem, error) {
	if owner == "" {
		return nil, errors.New("claim owner must not be empty")
	}
	now := nowStamp()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE selection_items
         SET status = ?, lock_owner = ?, locked_at = ?, attempts = attempts + 1, updated_at = ?
         WHERE id = ? AND status = ? AND lock_owner IS NULL`,
		ItemRunning,
		owner,
		now,
		now,
		id,
		ItemEnqueued,
	)
	if err != nil {
		return nil, fmt.Errorf("claim item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected != 1 {
		return nil, nil
	}
	return s.GetItem(ctx, id)
}

// RecordItemOutcome finalizes a running item in a single conditional update:
// the terminal status, catalog entry reference, and error text land together
// with the lock release so a crash can never half-record an outcome.
func (s *Store) RecordItemOutcome(ctx context.Context, id int64, status ItemStatus, entryID *int64, errorMessage string) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not a terminal outcome", status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE selection_items
         SET status = ?, entry_id = ?, error_message = ?, lock_owner = NULL, locked_at = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		status,
		nullableInt64(entryID),
		nullableString(errorMessage),
		nowStamp(),
		id,
		ItemRunning,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("item %d not running; outcome %q not recorded", id, status)
	}
	return nil
}

// ItemsBySessionAndStatus returns a session's items filtered by status set
// (or all items when no status is provided), in ascending id order.
func (s *Store) ItemsBySessionAndStatus(ctx context.Context, sessionID int64, statuses ...ItemStatus) ([]*SelectionItem, error) {
	baseQuery := `SELECT ` + itemColumns + ` FROM selection_items WHERE session_id = ?`
	orderClause := ` ORDER BY id`
	args := []any{sessionID}

	query := baseQuery + orderClause
	if len(statuses) > 0 {
		placeholders := makePlaceholders(len(statuses))
		for _, status := range statuses {
			args = append(args, status)
		}
		query = baseQuery + ` AND status IN (` + placeholders + `)` + orderClause
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*SelectionItem
	for rows.Next() {
		item, err := scanSelectionItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountItemsByStatus aggregates a session's items grouped by status. This is
// the crash-resumption primitive: session truth is always recomputable from
// persisted rows alone.
func (s *Store) CountItemsByStatus(ctx context.Context, sessionID int64) (map[ItemStatus]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT status, COUNT(1) FROM selection_items WHERE session_id = ? GROUP BY status`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	defer rows.Close()

	counts := make(map[ItemStatus]int)
	for rows.Next() {
		var status ItemStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// ReEnqueueFailed moves a session's failed items back to enqueued for another
// pass, clearing prior error text. Attempt counters are preserved.
func (s *Store) ReEnqueueFailed(ctx context.Context, sessionID int64) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE selection_items
         SET status = ?, error_message = NULL, updated_at = ?
         WHERE session_id = ? AND status = ?`,
		ItemEnqueued,
		nowStamp(),
		sessionID,
		ItemFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("re-enqueue failed items: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStaleRunning returns items whose claim outlived the cutoff back to
// enqueued, clearing the abandoned lock. A crashed worker leaves its item
// visibly running; this sweep is how the next pass recovers it.
func (s *Store) ReclaimStaleRunning(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE selection_items
         SET status = ?, lock_owner = NULL, locked_at = NULL, updated_at = ?
         WHERE status = ? AND locked_at IS NOT NULL AND locked_at < ?`,
		ItemEnqueued,
		nowStamp(),
		ItemRunning,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", err)
	}
	return res.RowsAffected()
}

// ExpireItems marks a session's still-queued items expired; used when a
// canceled session is finalized so non-processed work is visible as such.
func (s *Store) ExpireItems(ctx context.Context, sessionID int64) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE selection_items SET status = ?, updated_at = ?
         WHERE session_id = ? AND status IN (?, ?)`,
		ItemExpired,
		nowStamp(),
		sessionID,
		ItemPending,
		ItemEnqueued,
	)
	if err != nil {
		return 0, fmt.Errorf("expire items: %w", err)
	}
	return res.RowsAffected()
}

func scanSelectionItem(scanner interface{ Scan(dest ...any) error }) (*SelectionItem, error) {
	var (
		id            int64
		sessionID     int64
		origin        string
		sourceLocator string
		status        string
		attempts      int
		lockOwner     sql.NullString
		lockedAtRaw   sql.NullString
		entryID       sql.NullInt64
		errorMessage  sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sessionID,
		&origin,
		&sourceLocator,
		&status,
		&attempts,
		&lockOwner,
		&lockedAtRaw,
		&entryID,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &SelectionItem{
		ID:            id,
		SessionID:     sessionID,
		Origin:        Origin(origin),
		SourceLocator: sourceLocator,
		Status:        ItemStatus(status),
		Attempts:      attempts,
		LockOwner:     lockOwner.String,
		LockedAt:      timePtrFromNull(lockedAtRaw),
		ErrorMessage:  errorMessage.String,
	}
	if entryID.Valid {
		v := entryID.Int64
		item.EntryID = &v
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}
