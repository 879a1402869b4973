package dedup

import (
	"context"
	"log/slog"
	"math"

	"photoflow/internal/catalog"
	"photoflow/internal/logging"
)

// durationTolerance absorbs container-level rounding when comparing video
// durations from different probes of the same content.
const durationTolerance = 0.01

// Tier identifies which rule of the matching chain produced a duplicate verdict.
type Tier string

const (
	TierExact         Tier = "exact"
	TierPerceptual    Tier = "perceptual"
	TierCryptographic Tier = "cryptographic"
)

// Verdict is the tagged result of classification: either the candidate is new,
// or it duplicates an existing entry found by a specific tier.
type Verdict struct {
	Duplicate bool
	EntryID   int64
	Tier      Tier
}

// New is the verdict for a previously unseen candidate.
func New() Verdict {
	return Verdict{}
}

// DuplicateOf builds a duplicate verdict referencing the matched entry.
func DuplicateOf(entryID int64, tier Tier) Verdict {
	return Verdict{Duplicate: true, EntryID: entryID, Tier: tier}
}

// Store is the read-only catalog surface the matcher queries. It must
// tolerate concurrent inserts; a stale read here is resolved later by the
// insert-conflict path.
type Store interface {
	EntriesByPerceptualHash(ctx context.Context, kind catalog.MediaKind, hash string) ([]*catalog.CatalogEntry, error)
	FindEntryByContentHash(ctx context.Context, hash string, byteSize int64) (*catalog.CatalogEntry, error)
}

// Matcher classifies candidates against the catalog using a tiered chain:
// exact perceptual match, bare perceptual match, then cryptographic match.
// First success wins.
type Matcher struct {
	store  Store
	logger *slog.Logger
}

// NewMatcher builds a matcher over the given catalog store.
func NewMatcher(store Store, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{store: store, logger: logger}
}

// Classify returns the match verdict for a candidate. Only non-deleted
// entries participate; perceptual tiers are scoped to the candidate's media
// kind, the cryptographic tier is kind-agnostic.
func (m *Matcher) Classify(ctx context.Context, candidate *catalog.MediaCandidate) (Verdict, error) {
	if candidate.PerceptualHash != "" {
		peers, err := m.store.EntriesByPerceptualHash(ctx, candidate.Kind, candidate.PerceptualHash)
		if err != nil {
			return Verdict{}, err
		}
		if match := exactMatch(candidate, peers); match != nil {
			m.logVerdict(candidate, match.ID, TierExact)
			return DuplicateOf(match.ID, TierExact), nil
		}
		if match := perceptualMatch(candidate, peers); match != nil {
			m.logVerdict(candidate, match.ID, TierPerceptual)
			return DuplicateOf(match.ID, TierPerceptual), nil
		}
	}

	entry, err := m.store.FindEntryByContentHash(ctx, candidate.ContentHash, candidate.ByteSize)
	if err != nil {
		return Verdict{}, err
	}
	if entry != nil {
		m.logVerdict(candidate, entry.ID, TierCryptographic)
		return DuplicateOf(entry.ID, TierCryptographic), nil
	}
	return New(), nil
}

func (m *Matcher) logVerdict(candidate *catalog.MediaCandidate, entryID int64, tier Tier) {
	m.logger.Debug("duplicate detected",
		logging.String("file", candidate.FileName),
		logging.Int64("entry_id", entryID),
		logging.String("tier", string(tier)))
}

// exactMatch requires identical perceptual hash, capture timestamp, and
// dimensions; videos must additionally agree on duration.
func exactMatch(candidate *catalog.MediaCandidate, peers []*catalog.CatalogEntry) *catalog.CatalogEntry {
	for _, entry := range peers {
		if !timestampsEqual(candidate, entry) || !dimensionsEqual(candidate, entry) {
			continue
		}
		if candidate.Kind == catalog.KindVideo && !durationsEqual(candidate.DurationSec, entry.DurationSec) {
			continue
		}
		return entry
	}
	return nil
}

// perceptualMatch takes any peer sharing the hash. When several do, one that
// also matches the timestamp or dimensions is preferred over the first.
func perceptualMatch(candidate *catalog.MediaCandidate, peers []*catalog.CatalogEntry) *catalog.CatalogEntry {
	if len(peers) == 0 {
		return nil
	}
	for _, entry := range peers {
		if timestampsEqual(candidate, entry) || dimensionsEqual(candidate, entry) {
			return entry
		}
	}
	return peers[0]
}

func timestampsEqual(candidate *catalog.MediaCandidate, entry *catalog.CatalogEntry) bool {
	return candidate.ShotAt.Equal(entry.ShotAt)
}

func dimensionsEqual(candidate *catalog.MediaCandidate, entry *catalog.CatalogEntry) bool {
	return candidate.Width == entry.Width && candidate.Height == entry.Height
}

func durationsEqual(a, b float64) bool {
	return math.Abs(a-b) <= durationTolerance
}
