package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
	"photoflow/internal/dedup"
	"photoflow/internal/discovery"
	"photoflow/internal/identity"
	"photoflow/internal/logging"
	"photoflow/internal/progress"
	"photoflow/internal/remote"
	"photoflow/internal/services"
	"photoflow/internal/session"
	"photoflow/internal/thumbs"
)

// Options overrides processor collaborators, mainly for tests. Nil fields
// select the production implementations.
type Options struct {
	Resolver *identity.Resolver
	Scanner  *discovery.Scanner
	Thumbs   *thumbs.Service
	Sink     progress.Sink
}

// Processor drives an import run: discovery, enqueue, concurrent claim and
// import, and finalization by re-aggregating persisted item state.
type Processor struct {
	cfg      *config.Config
	store    *catalog.Store
	resolver *identity.Resolver
	matcher  *dedup.Matcher
	scanner  *discovery.Scanner
	thumbs   *thumbs.Service
	sink     progress.Sink
	logger   *slog.Logger
}

// New wires a processor from configuration.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger, opts Options) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = identity.NewResolver(cfg, logger, nil, nil)
	}
	scanner := opts.Scanner
	if scanner == nil {
		scanner = discovery.NewScanner(cfg, logger)
	}
	thumbService := opts.Thumbs
	if thumbService == nil {
		thumbService = thumbs.NewService(cfg, store, thumbs.NewGenerator(cfg, nil), logger)
	}
	sink := opts.Sink
	if sink == nil {
		sink = progress.NopSink{}
	}
	return &Processor{
		cfg:      cfg,
		store:    store,
		resolver: resolver,
		matcher:  dedup.NewMatcher(store, logger),
		scanner:  scanner,
		thumbs:   thumbService,
		sink:     sink,
		logger:   logger.With(logging.String(logging.FieldComponent, "importer")),
	}
}

// RunLocal imports a local directory tree as one session.
func (p *Processor) RunLocal(ctx context.Context, root, label string) (*catalog.ImportSession, error) {
	unlock, err := p.acquireRunLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := p.store.CreateSession(ctx, label, "")
	if err != nil {
		return nil, err
	}
	p.reclaimStale(ctx)

	if err := p.store.SetSessionStatus(ctx, sess.ID, catalog.SessionExpanding); err != nil {
		return nil, err
	}

	items, cleanup, err := p.scanner.Scan(ctx, root)
	if err != nil {
		p.failSession(ctx, sess.ID, err)
		return p.store.GetSession(ctx, sess.ID)
	}
	defer cleanup()

	kinds := make(map[string]catalog.MediaKind, len(items))
	for _, item := range items {
		kinds[item.Path] = item.Kind
		if _, err := p.store.AddItem(ctx, sess.ID, catalog.OriginLocal, item.Path); err != nil {
			p.failSession(ctx, sess.ID, err)
			return p.store.GetSession(ctx, sess.ID)
		}
	}

	return p.processSession(ctx, sess.ID, localSource{scanner: p.scanner, kinds: kinds})
}

// RunRemote imports from a remote photo source as one session.
func (p *Processor) RunRemote(ctx context.Context, src remote.Source, label string) (*catalog.ImportSession, error) {
	unlock, err := p.acquireRunLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := p.store.CreateSession(ctx, label, src.Account())
	if err != nil {
		return nil, err
	}
	p.reclaimStale(ctx)

	if err := p.store.SetSessionStatus(ctx, sess.ID, catalog.SessionExpanding); err != nil {
		return nil, err
	}

	mediaByID := make(map[string]remote.Media)
	cursor := ""
	for {
		page, err := src.List(ctx, cursor)
		if err != nil {
			p.failSession(ctx, sess.ID, err)
			return p.store.GetSession(ctx, sess.ID)
		}
		for _, media := range page.Items {
			mediaByID[media.ID] = media
			if _, err := p.store.AddItem(ctx, sess.ID, catalog.OriginRemote, media.ID); err != nil {
				p.failSession(ctx, sess.ID, err)
				return p.store.GetSession(ctx, sess.ID)
			}
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	stagingDir := filepath.Join(p.cfg.Paths.StagingDir, fmt.Sprintf("remote-%d", sess.ID))
	defer os.RemoveAll(stagingDir)

	return p.processSession(ctx, sess.ID, &remoteSource{
		source:     src,
		media:      mediaByID,
		stagingDir: stagingDir,
	})
}

// RetrySession re-enqueues a session's failed items and processes them again.
// Only local-origin items can be retried this way; their locators must still
// exist on disk.
func (p *Processor) RetrySession(ctx context.Context, sessionID int64) (*catalog.ImportSession, error) {
	unlock, err := p.acquireRunLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "importer", "retry",
			fmt.Sprintf("session %d not found", sessionID), nil)
	}
	// Remote items were staged into a directory that is gone after the
	// original run; re-running them needs a fresh sync listing.
	if sess.RemoteAccount != "" {
		return nil, services.Wrap(services.ErrValidation, "importer", "retry",
			fmt.Sprintf("session %d imported from remote account %q; run a new sync instead of a retry", sessionID, sess.RemoteAccount), nil)
	}
	p.reclaimStale(ctx)

	moved, err := p.store.ReEnqueueFailed(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if moved == 0 {
		return sess, nil
	}
	return p.processSession(ctx, sessionID, localSource{scanner: p.scanner})
}

// ReclaimStale returns abandoned running claims to the queue, using the
// configured claim timeout as the staleness cutoff.
func (p *Processor) ReclaimStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(p.cfg.Import.ClaimTimeoutMinutes) * time.Minute)
	return p.store.ReclaimStaleRunning(ctx, cutoff)
}

func (p *Processor) reclaimStale(ctx context.Context) {
	reclaimed, err := p.ReclaimStale(ctx)
	if err != nil {
		p.logger.Warn("reclaim stale claims", logging.Error(err))
		return
	}
	if reclaimed > 0 {
		p.logger.Info("reclaimed stale claims", logging.Int64("count", reclaimed))
	}
}

// processSession promotes pending items, runs the worker pool, and finalizes
// the session from persisted state.
func (p *Processor) processSession(ctx context.Context, sessionID int64, src itemSource) (*catalog.ImportSession, error) {
	enqueued, err := p.store.MarkSessionItemsEnqueued(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	counts, err := p.store.CountItemsByStatus(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	total := session.Counts(counts).Total()
	if total == 0 {
		return p.finalize(ctx, sessionID, time.Now(), 0)
	}

	if err := p.store.SetSessionStatus(ctx, sessionID, catalog.SessionProcessing); err != nil {
		return nil, err
	}

	started := time.Now()
	workers := p.cfg.Import.Workers
	if workers < 1 {
		workers = 1
	}

	var done atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		owner := fmt.Sprintf("%s-%d-w%d", hostname(), os.Getpid(), w)
		go func() {
			defer wg.Done()
			p.workLoop(ctx, sessionID, owner, src, total, &done)
		}()
	}
	wg.Wait()

	if int(enqueued) > 0 {
		p.sink.Finish(fmt.Sprintf("processed %d items", done.Load()))
	}
	return p.finalize(ctx, sessionID, started, workers)
}

// workLoop claims and processes items until the queue drains, the context
// ends, or the session is canceled. Cancellation is checked at item
// boundaries only; an in-flight item finishes naturally.
func (p *Processor) workLoop(ctx context.Context, sessionID int64, owner string, src itemSource, total int, done *atomic.Int64) {
	workerCtx := services.WithWorker(ctx, owner)
	log := p.logger.With(logging.String(logging.FieldWorker, owner))
	for {
		if ctx.Err() != nil {
			return
		}
		canceled, err := p.store.SessionCancelRequested(workerCtx, sessionID)
		if err != nil {
			log.Error("check cancellation", logging.Error(err))
			return
		}
		if canceled {
			return
		}

		item, err := p.store.ClaimNextItem(workerCtx, sessionID, owner)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("claim item", logging.Error(err))
			}
			return
		}
		if item == nil {
			return
		}

		outcome := p.processItem(workerCtx, log, item, src)
		if err := p.store.RecordItemOutcome(workerCtx, item.ID, outcome.status, outcome.entryID, outcome.message); err != nil {
			// Leave the item for a later consistency pass rather than guess.
			log.Error("record outcome",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.Error(err))
		}

		current := int(done.Add(1))
		p.sink.Publish(current, total, filepath.Base(item.SourceLocator))
		if err := p.store.TouchSessionProgress(workerCtx, sessionID); err != nil {
			log.Warn("touch progress", logging.Error(err))
		}
	}
}

// finalize recomputes the session's truth from persisted item rows. A run
// interrupted by a crash can be finalized later with exactly this logic.
func (p *Processor) finalize(ctx context.Context, sessionID int64, started time.Time, workers int) (*catalog.ImportSession, error) {
	cancelRequested, err := p.store.SessionCancelRequested(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cancelRequested {
		if _, err := p.store.ExpireItems(ctx, sessionID); err != nil {
			return nil, err
		}
	}

	counts, err := p.store.CountItemsByStatus(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	aggregated := session.Counts(counts)
	status := session.Aggregate(aggregated, cancelRequested)

	stats := runStats{
		Elapsed: time.Since(started).Round(time.Millisecond).String(),
		Workers: workers,
		Total:   aggregated.Total(),
	}
	statsJSON, _ := json.Marshal(stats)

	err = p.store.UpdateSessionAggregates(ctx, sessionID, status,
		aggregated.Total(),
		counts[catalog.ItemImported],
		counts[catalog.ItemDup],
		counts[catalog.ItemFailed],
		string(statsJSON))
	if err != nil {
		return nil, err
	}

	p.logger.Info("session finalized",
		logging.Int64(logging.FieldSessionID, sessionID),
		logging.String("status", string(status)),
		logging.Int("imported", counts[catalog.ItemImported]),
		logging.Int("duplicate", counts[catalog.ItemDup]),
		logging.Int("failed", counts[catalog.ItemFailed]))
	return p.store.GetSession(ctx, sessionID)
}

// failSession marks a run dead on a pass-level precondition failure. No items
// are processed.
func (p *Processor) failSession(ctx context.Context, sessionID int64, cause error) {
	p.logger.Error("import run failed",
		logging.Int64(logging.FieldSessionID, sessionID),
		logging.Error(cause))
	stats, _ := json.Marshal(runStats{Error: cause.Error()})
	if err := p.store.UpdateSessionAggregates(ctx, sessionID, catalog.SessionError, 0, 0, 0, 0, string(stats)); err != nil {
		p.logger.Error("mark session error", logging.Error(err))
	}
}

// acquireRunLock takes the staging-area file lock so two import passes never
// interleave their expansion and staging work.
func (p *Processor) acquireRunLock() (func(), error) {
	if err := os.MkdirAll(p.cfg.Paths.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	lock := flock.New(filepath.Join(p.cfg.Paths.StagingDir, "import.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConflict, "importer", "run",
			"another import run holds the staging lock", nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("release run lock", logging.Error(err))
		}
	}, nil
}

type runStats struct {
	Elapsed string `json:"elapsed,omitempty"`
	Workers int    `json:"workers,omitempty"`
	Total   int    `json:"total,omitempty"`
	Error   string `json:"error,omitempty"`
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "worker"
	}
	return name
}
