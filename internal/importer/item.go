package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"photoflow/internal/catalog"
	"photoflow/internal/dedup"
	"photoflow/internal/discovery"
	"photoflow/internal/fileutil"
	"photoflow/internal/logging"
	"photoflow/internal/remote"
)

// itemSource turns a claimed item's locator into a readable local file.
type itemSource interface {
	prepare(ctx context.Context, item *catalog.SelectionItem) (path string, kind catalog.MediaKind, cleanup func(), err error)
}

// localSource serves filesystem locators directly. The kinds map carries the
// classification from the discovery pass; items retried in a later pass fall
// back to re-classifying by extension.
type localSource struct {
	scanner *discovery.Scanner
	kinds   map[string]catalog.MediaKind
}

func (s localSource) prepare(_ context.Context, item *catalog.SelectionItem) (string, catalog.MediaKind, func(), error) {
	noop := func() {}
	if kind, ok := s.kinds[item.SourceLocator]; ok {
		return item.SourceLocator, kind, noop, nil
	}
	kind, ok := s.scanner.KindForPath(item.SourceLocator)
	if !ok {
		return "", "", noop, fmt.Errorf("no media kind for %s", item.SourceLocator)
	}
	return item.SourceLocator, kind, noop, nil
}

// remoteSource downloads remote locators into a per-session staging dir.
type remoteSource struct {
	source     remote.Source
	media      map[string]remote.Media
	stagingDir string
}

func (s *remoteSource) prepare(ctx context.Context, item *catalog.SelectionItem) (string, catalog.MediaKind, func(), error) {
	noop := func() {}
	media, ok := s.media[item.SourceLocator]
	if !ok {
		return "", "", noop, fmt.Errorf("remote media %s not in listing", item.SourceLocator)
	}
	path, err := s.source.Download(ctx, media, s.stagingDir)
	if err != nil {
		return "", "", noop, err
	}
	return path, media.Kind, func() { os.Remove(path) }, nil
}

// outcome is the terminal result of processing one item.
type outcome struct {
	status  catalog.ItemStatus
	entryID *int64
	message string
}

func importedOutcome(entryID int64) outcome {
	return outcome{status: catalog.ItemImported, entryID: &entryID}
}

func dupOutcome(entryID int64) outcome {
	return outcome{status: catalog.ItemDup, entryID: &entryID}
}

func failedOutcome(err error) outcome {
	return outcome{status: catalog.ItemFailed, message: err.Error()}
}

// processItem runs one item through resolve, classify, and import. Per-item
// errors never abort the batch; they become a failed outcome with the error
// text retained.
func (p *Processor) processItem(ctx context.Context, log *slog.Logger, item *catalog.SelectionItem, src itemSource) outcome {
	path, kind, cleanup, err := src.prepare(ctx, item)
	if err != nil {
		return failedOutcome(err)
	}
	defer cleanup()

	candidate, err := p.resolver.Resolve(ctx, path, item.Origin, kind)
	if err != nil {
		return failedOutcome(err)
	}
	candidate.SourceLocator = item.SourceLocator

	verdict, err := p.matcher.Classify(ctx, candidate)
	if err != nil {
		return failedOutcome(err)
	}
	if verdict.Duplicate {
		p.backfillPerceptualHash(ctx, log, verdict, candidate)
		p.regenerateDupThumbnail(ctx, log, verdict.EntryID, path)
		return dupOutcome(verdict.EntryID)
	}

	entry, err := p.importNew(ctx, log, candidate, path)
	if err != nil {
		return failedOutcome(err)
	}
	if entry == nil {
		// Insert race: someone imported the same content first.
		existing, err := p.store.FindEntryByContentHash(ctx, candidate.ContentHash, candidate.ByteSize)
		if err != nil || existing == nil {
			return failedOutcome(fmt.Errorf("catalog conflict for %s left no matching entry", candidate.FileName))
		}
		return dupOutcome(existing.ID)
	}

	if err := p.thumbs.Generate(ctx, entry, filepath.Join(p.cfg.Paths.LibraryDir, filepath.FromSlash(entry.RelativePath))); err != nil {
		// Bounded retries take over; the import itself succeeded.
		log.Warn("thumbnail generation failed",
			logging.String("public_id", entry.PublicID),
			logging.Error(err))
	}
	return importedOutcome(entry.ID)
}

// importNew places the file in the library and inserts the catalog row.
// Returns (nil, nil) when a concurrent import won the content-hash race.
// A public-id collision is resequenced and retried once.
func (p *Processor) importNew(ctx context.Context, log *slog.Logger, candidate *catalog.MediaCandidate, sourcePath string) (*catalog.CatalogEntry, error) {
	target := filepath.Join(
		p.cfg.Paths.LibraryDir,
		candidate.ShotAt.UTC().Format("2006"),
		candidate.ShotAt.UTC().Format("01"),
		candidate.FileName,
	)
	target, err := fileutil.UniqueTarget(target)
	if err != nil {
		return nil, err
	}
	if err := fileutil.CopyFileVerified(sourcePath, target); err != nil {
		return nil, err
	}
	relativePath, err := filepath.Rel(p.cfg.Paths.LibraryDir, target)
	if err != nil {
		return nil, err
	}

	entry := entryFromCandidate(candidate, filepath.ToSlash(relativePath))
	entry.PublicID = dedup.NewPublicID(candidate.ShotAt, candidate.ContentHash)

	insertErr := p.store.InsertEntry(ctx, entry)
	if insertErr == nil {
		return entry, nil
	}
	if !catalog.IsUniqueViolation(insertErr) {
		os.Remove(target)
		return nil, insertErr
	}

	// Content already cataloged by a concurrent worker?
	existing, err := p.store.FindEntryByContentHash(ctx, candidate.ContentHash, candidate.ByteSize)
	if err != nil {
		os.Remove(target)
		return nil, err
	}
	if existing != nil {
		os.Remove(target)
		return nil, nil
	}

	// Public identifier collision: regenerate it and retry the write once.
	entry.PublicID = dedup.Resequence(entry.PublicID)
	log.Info("resequenced public id", logging.String("public_id", entry.PublicID))
	if err := p.store.InsertEntry(ctx, entry); err != nil {
		os.Remove(target)
		return nil, fmt.Errorf("insert after resequencing: %w", err)
	}
	return entry, nil
}

// backfillPerceptualHash fills the matched entry's missing perceptual hash
// when a cryptographic-tier match sees the same content with a fingerprint
// the catalog lacks. The store accepts the write at most once per entry.
func (p *Processor) backfillPerceptualHash(ctx context.Context, log *slog.Logger, verdict dedup.Verdict, candidate *catalog.MediaCandidate) {
	if verdict.Tier != dedup.TierCryptographic || candidate.PerceptualHash == "" {
		return
	}
	updated, err := p.store.BackfillPerceptualHash(ctx, verdict.EntryID, candidate.PerceptualHash)
	if err != nil {
		log.Warn("perceptual hash backfill failed",
			logging.Int64("entry_id", verdict.EntryID),
			logging.Error(err))
		return
	}
	if updated {
		log.Info("backfilled perceptual hash",
			logging.Int64("entry_id", verdict.EntryID),
			logging.String("perceptual_hash", candidate.PerceptualHash))
	}
}

// regenerateDupThumbnail optionally refreshes the matched entry's thumbnail
// from the newly seen copy of the content.
func (p *Processor) regenerateDupThumbnail(ctx context.Context, log *slog.Logger, entryID int64, sourcePath string) {
	if !p.cfg.Thumbnails.RegenerateForDuplicates {
		return
	}
	entry, err := p.store.GetEntry(ctx, entryID)
	if err != nil || entry == nil {
		return
	}
	if err := p.thumbs.Generate(ctx, entry, sourcePath); err != nil {
		log.Warn("duplicate thumbnail regeneration failed",
			logging.String("public_id", entry.PublicID),
			logging.Error(err))
	}
}

func entryFromCandidate(candidate *catalog.MediaCandidate, relativePath string) *catalog.CatalogEntry {
	return &catalog.CatalogEntry{
		Origin:         candidate.Origin,
		SourceLocator:  candidate.SourceLocator,
		Kind:           candidate.Kind,
		FileName:       candidate.FileName,
		RelativePath:   relativePath,
		ByteSize:       candidate.ByteSize,
		MimeType:       candidate.MimeType,
		Width:          candidate.Width,
		Height:         candidate.Height,
		DurationSec:    candidate.DurationSec,
		ShotAt:         candidate.ShotAt,
		ContentHash:    candidate.ContentHash,
		PerceptualHash: candidate.PerceptualHash,
	}
}
