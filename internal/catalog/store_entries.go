package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const entryColumns = "id, public_id, origin, source_locator, kind, file_name, relative_path, byte_size, mime_type, width, height, duration_sec, shot_at, content_hash, perceptual_hash, deleted, created_at, updated_at"

// InsertEntry persists a new catalog entry and assigns its identifier.
// Uniqueness violations (content hash among non-deleted entries, public id)
// surface unwrapped so callers can run the conflict-resolution path.
func (s *Store) InsertEntry(ctx context.Context, entry *CatalogEntry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	timestamp := nowStamp()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO catalog_entries (
            public_id, origin, source_locator, kind, file_name, relative_path,
            byte_size, mime_type, width, height, duration_sec, shot_at,
            content_hash, perceptual_hash, deleted, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.PublicID,
		entry.Origin,
		nullableString(entry.SourceLocator),
		entry.Kind,
		entry.FileName,
		entry.RelativePath,
		entry.ByteSize,
		nullableString(entry.MimeType),
		entry.Width,
		entry.Height,
		entry.DurationSec,
		nullableTimestamp(entry.ShotAt),
		entry.ContentHash,
		nullableString(entry.PerceptualHash),
		boolToInt(entry.Deleted),
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	if created, err := parseTimeString(timestamp); err == nil {
		entry.CreatedAt = created
		entry.UpdatedAt = created
	}
	return nil
}

// GetEntry fetches a catalog entry by identifier. Returns nil when absent.
func (s *Store) GetEntry(ctx context.Context, id int64) (*CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM catalog_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// FindEntryByContentHash returns the first non-deleted entry with matching
// content hash and byte size, any media kind.
func (s *Store) FindEntryByContentHash(ctx context.Context, contentHash string, byteSize int64) (*CatalogEntry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+entryColumns+` FROM catalog_entries
         WHERE content_hash = ? AND byte_size = ? AND deleted = 0
         ORDER BY id LIMIT 1`,
		contentHash,
		byteSize,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by content hash: %w", err)
	}
	return entry, nil
}

// EntriesByPerceptualHash returns non-deleted entries of the given kind that
// share a perceptual hash, in ascending id order.
func (s *Store) EntriesByPerceptualHash(ctx context.Context, kind MediaKind, perceptualHash string) ([]*CatalogEntry, error) {
	if perceptualHash == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+entryColumns+` FROM catalog_entries
         WHERE kind = ? AND perceptual_hash = ? AND deleted = 0
         ORDER BY id`,
		kind,
		perceptualHash,
	)
	if err != nil {
		return nil, fmt.Errorf("query by perceptual hash: %w", err)
	}
	defer rows.Close()

	var entries []*CatalogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// BackfillPerceptualHash records a perceptual hash on an entry that has none.
// The conditional WHERE keeps the once-only invariant: an existing hash is
// never overwritten.
func (s *Store) BackfillPerceptualHash(ctx context.Context, id int64, perceptualHash string) (bool, error) {
	if perceptualHash == "" {
		return false, nil
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE catalog_entries SET perceptual_hash = ?, updated_at = ?
         WHERE id = ? AND (perceptual_hash IS NULL OR perceptual_hash = '')`,
		perceptualHash,
		nowStamp(),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("backfill perceptual hash: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// SoftDeleteEntry marks an entry deleted, freeing its content hash for reuse.
func (s *Store) SoftDeleteEntry(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE catalog_entries SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0`,
		nowStamp(),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// CountEntries returns the number of non-deleted catalog entries.
func (s *Store) CountEntries(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM catalog_entries WHERE deleted = 0`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*CatalogEntry, error) {
	var (
		id             int64
		publicID       string
		origin         string
		sourceLocator  sql.NullString
		kind           string
		fileName       string
		relativePath   string
		byteSize       int64
		mimeType       sql.NullString
		width          int
		height         int
		durationSec    float64
		shotAtRaw      sql.NullString
		contentHash    string
		perceptualHash sql.NullString
		deleted        int
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&publicID,
		&origin,
		&sourceLocator,
		&kind,
		&fileName,
		&relativePath,
		&byteSize,
		&mimeType,
		&width,
		&height,
		&durationSec,
		&shotAtRaw,
		&contentHash,
		&perceptualHash,
		&deleted,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &CatalogEntry{
		ID:             id,
		PublicID:       publicID,
		Origin:         Origin(origin),
		SourceLocator:  sourceLocator.String,
		Kind:           MediaKind(kind),
		FileName:       fileName,
		RelativePath:   relativePath,
		ByteSize:       byteSize,
		MimeType:       mimeType.String,
		Width:          width,
		Height:         height,
		DurationSec:    durationSec,
		ContentHash:    contentHash,
		PerceptualHash: perceptualHash.String,
		Deleted:        deleted != 0,
	}
	if shotAt := timePtrFromNull(shotAtRaw); shotAt != nil {
		entry.ShotAt = *shotAt
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}
