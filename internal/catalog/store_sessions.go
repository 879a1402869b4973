package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = "id, label, remote_account, status, enqueued_count, imported_count, duplicate_count, failed_count, cancel_requested, last_progress_at, stats_json, created_at, updated_at"

// CreateSession inserts a new import session in the pending state.
func (s *Store) CreateSession(ctx context.Context, label, remoteAccount string) (*ImportSession, error) {
	timestamp := nowStamp()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO import_sessions (label, remote_account, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		label,
		nullableString(remoteAccount),
		SessionPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetSession(ctx, id)
}

// GetSession fetches a session by identifier. Returns nil when absent.
func (s *Store) GetSession(ctx context.Context, id int64) (*ImportSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM import_sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions returns sessions in descending creation order.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]*ImportSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM import_sessions ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*ImportSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// SessionsSince returns sessions created at or after the cutoff.
func (s *Store) SessionsSince(ctx context.Context, cutoff time.Time) ([]*ImportSession, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+` FROM import_sessions WHERE created_at >= ? ORDER BY id`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("sessions since: %w", err)
	}
	defer rows.Close()

	var sessions []*ImportSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// SetSessionStatus transitions a session's status.
func (s *Store) SetSessionStatus(ctx context.Context, id int64, status SessionStatus) error {
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		nowStamp(),
		id,
	); err != nil {
		return fmt.Errorf("set session status: %w", err)
	}
	return nil
}

// UpdateSessionAggregates persists counts, status, and progress timestamp
// derived from persisted item states.
func (s *Store) UpdateSessionAggregates(ctx context.Context, id int64, status SessionStatus, enqueued, imported, duplicate, failed int, statsJSON string) error {
	now := nowStamp()
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions
         SET status = ?, enqueued_count = ?, imported_count = ?, duplicate_count = ?,
             failed_count = ?, stats_json = ?, last_progress_at = ?, updated_at = ?
         WHERE id = ?`,
		status,
		enqueued,
		imported,
		duplicate,
		failed,
		nullableString(statsJSON),
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("update session aggregates: %w", err)
	}
	return nil
}

// TouchSessionProgress stamps the last-progress timestamp.
func (s *Store) TouchSessionProgress(ctx context.Context, id int64) error {
	now := nowStamp()
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions SET last_progress_at = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("touch session progress: %w", err)
	}
	return nil
}

// RequestSessionCancel raises the cooperative cancellation flag.
func (s *Store) RequestSessionCancel(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions SET cancel_requested = 1, updated_at = ? WHERE id = ?`,
		nowStamp(),
		id,
	); err != nil {
		return fmt.Errorf("request session cancel: %w", err)
	}
	return nil
}

// SessionCancelRequested reads the cancellation flag.
func (s *Store) SessionCancelRequested(ctx context.Context, id int64) (bool, error) {
	var flag int
	err := s.db.QueryRowContext(ctx, `SELECT cancel_requested FROM import_sessions WHERE id = ?`, id).Scan(&flag)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("session %d: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return false, fmt.Errorf("read cancel flag: %w", err)
	}
	return flag != 0, nil
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*ImportSession, error) {
	var (
		id              int64
		label           string
		remoteAccount   sql.NullString
		status          string
		enqueuedCount   int
		importedCount   int
		duplicateCount  int
		failedCount     int
		cancelRequested int
		lastProgressRaw sql.NullString
		statsJSON       sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&label,
		&remoteAccount,
		&status,
		&enqueuedCount,
		&importedCount,
		&duplicateCount,
		&failedCount,
		&cancelRequested,
		&lastProgressRaw,
		&statsJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	session := &ImportSession{
		ID:              id,
		Label:           label,
		RemoteAccount:   remoteAccount.String,
		Status:          SessionStatus(status),
		EnqueuedCount:   enqueuedCount,
		ImportedCount:   importedCount,
		DuplicateCount:  duplicateCount,
		FailedCount:     failedCount,
		CancelRequested: cancelRequested != 0,
		LastProgressAt:  timePtrFromNull(lastProgressRaw),
		StatsJSON:       statsJSON.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		session.UpdatedAt = updated
	}
	return session, nil
}
