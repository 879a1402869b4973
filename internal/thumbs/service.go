package thumbs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
	"photoflow/internal/logging"
)

// retryClaimStaleAfter bounds how long a sweep claim can sit before another
// sweep may take the record over.
const retryClaimStaleAfter = time.Hour

// Service drives thumbnail generation with the bounded retry policy: failures
// schedule a deferred re-execution until the budget is spent, success clears
// the retry record, exhaustion raises a monitorable alert.
type Service struct {
	store       *catalog.Store
	generator   *Generator
	libraryDir  string
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// NewService wires the retry service from configuration.
func NewService(cfg *config.Config, store *catalog.Store, generator *Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:       store,
		generator:   generator,
		libraryDir:  cfg.Paths.LibraryDir,
		maxAttempts: cfg.Thumbnails.MaxAttempts,
		retryDelay:  time.Duration(cfg.Thumbnails.RetryDelayMinutes) * time.Minute,
		logger:      logger,
	}
}

// Generate attempts thumbnail generation for entry from sourcePath. On
// success any retry record is cleared; on failure the policy decides between
// scheduling a retry and marking the record exhausted. The returned error
// reflects the generation failure so callers can log it, but retry
// bookkeeping has already been handled.
func (s *Service) Generate(ctx context.Context, entry *catalog.CatalogEntry, sourcePath string) error {
	if _, err := s.generator.Generate(ctx, entry, sourcePath); err != nil {
		if recordErr := s.HandleFailure(ctx, entry.ID); recordErr != nil {
			s.logger.Error("record thumbnail failure",
				logging.Int64("entry_id", entry.ID),
				logging.Error(recordErr))
		}
		return err
	}
	return s.HandleSuccess(ctx, entry.ID)
}

// HandleSuccess clears the entry's retry record after a good generation.
func (s *Service) HandleSuccess(ctx context.Context, entryID int64) error {
	return s.store.ClearRetry(ctx, entryID)
}

// HandleFailure consults the policy and either schedules the next attempt or
// marks the record exhausted.
func (s *Service) HandleFailure(ctx context.Context, entryID int64) error {
	attempts := 0
	if record, err := s.store.GetRetryRecord(ctx, entryID); err != nil {
		return err
	} else if record != nil {
		attempts = record.Attempts
	}

	decision := Decide(attempts, s.maxAttempts)
	if !decision.CanRetry {
		if err := s.store.MarkRetryExhausted(ctx, entryID, decision.Reason); err != nil {
			return err
		}
		s.logger.Error("thumbnail retries exhausted",
			logging.Int64("entry_id", entryID),
			logging.Int("attempts", decision.Attempt),
			logging.Alert("thumbnail_retry_exhausted"))
		return nil
	}
	return s.store.ScheduleRetry(ctx, entryID, decision.Attempt, time.Now().Add(s.retryDelay), false)
}

// Sweep claims due retry records and re-runs generation for each. Returns how
// many records were processed. Stale claims from crashed sweeps are released
// first.
func (s *Service) Sweep(ctx context.Context, owner string) (int, error) {
	if released, err := s.store.ReleaseRetryClaims(ctx, time.Now().Add(-retryClaimStaleAfter)); err != nil {
		return 0, err
	} else if released > 0 {
		s.logger.Info("released stale retry claims", logging.Int64("count", released))
	}

	records, err := s.store.DueRetries(ctx, time.Now(), 0)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, record := range records {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return processed, ctxErr
		}
		claimed, err := s.store.ClaimRetry(ctx, record.ID, owner)
		if err != nil {
			return processed, err
		}
		if !claimed {
			continue
		}
		processed++
		if err := s.retryOne(ctx, record); err != nil {
			s.logger.Warn("thumbnail retry failed",
				logging.Int64("entry_id", record.EntryID),
				logging.Error(err))
		}
	}
	return processed, nil
}

func (s *Service) retryOne(ctx context.Context, record *catalog.RetryRecord) error {
	entry, err := s.store.GetEntry(ctx, record.EntryID)
	if err != nil {
		return err
	}
	if entry == nil || entry.Deleted {
		// Entry gone; nothing left to regenerate.
		return s.store.ClearRetry(ctx, record.EntryID)
	}
	source := filepath.Join(s.libraryDir, filepath.FromSlash(entry.RelativePath))
	if err := s.Generate(ctx, entry, source); err != nil {
		return fmt.Errorf("regenerate thumbnail for %s: %w", entry.PublicID, err)
	}
	s.logger.Info("thumbnail regenerated", logging.String("public_id", entry.PublicID))
	return nil
}
