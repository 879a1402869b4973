package catalog

import (
	"strings"
	"time"
)

// MediaKind distinguishes the two perceptual-hash pipelines.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// Origin identifies an ingestion source.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// SessionStatus represents the lifecycle of an import session.
type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionExpanding  SessionStatus = "expanding"
	SessionProcessing SessionStatus = "processing"
	SessionImported   SessionStatus = "imported"
	SessionReady      SessionStatus = "ready"
	SessionError      SessionStatus = "error"
	SessionCanceled   SessionStatus = "canceled"
)

// ItemStatus represents the lifecycle of a selection item.
type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemEnqueued ItemStatus = "enqueued"
	ItemRunning  ItemStatus = "running"
	ItemImported ItemStatus = "imported"
	ItemDup      ItemStatus = "dup"
	ItemFailed   ItemStatus = "failed"
	ItemExpired  ItemStatus = "expired"
)

var allItemStatuses = []ItemStatus{
	ItemPending,
	ItemEnqueued,
	ItemRunning,
	ItemImported,
	ItemDup,
	ItemFailed,
	ItemExpired,
}

var itemStatusSet = func() map[ItemStatus]struct{} {
	set := make(map[ItemStatus]struct{}, len(allItemStatuses))
	for _, status := range allItemStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllItemStatuses returns the ordered list of known item statuses.
func AllItemStatuses() []ItemStatus {
	cp := make([]ItemStatus, len(allItemStatuses))
	copy(cp, allItemStatuses)
	return cp
}

// ParseItemStatus converts a string into a known ItemStatus.
func ParseItemStatus(value string) (ItemStatus, bool) {
	normalized := ItemStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := itemStatusSet[normalized]
	return normalized, ok
}

// Terminal reports whether the status ends an item's lifecycle within a pass.
// Failed items remain re-enqueueable via an explicit retry.
func (s ItemStatus) Terminal() bool {
	switch s {
	case ItemImported, ItemDup, ItemFailed, ItemExpired:
		return true
	default:
		return false
	}
}

// Terminal reports whether the session status ends the run.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionImported, SessionReady, SessionError, SessionCanceled:
		return true
	default:
		return false
	}
}

// MediaCandidate is a file awaiting classification. Immutable once computed.
type MediaCandidate struct {
	Origin        Origin
	SourceLocator string
	FileName      string
	Kind          MediaKind
	ByteSize      int64
	MimeType      string
	Width         int
	Height        int
	DurationSec   float64
	ShotAt        time.Time
	ContentHash   string
	// PerceptualHash is a fixed-width hex fingerprint, empty when frame
	// extraction or decoding was unavailable.
	PerceptualHash string
}

// CatalogEntry is a previously accepted media item. The content hash is never
// mutated after creation; the perceptual hash may be backfilled once if absent.
type CatalogEntry struct {
	ID             int64
	PublicID       string
	Origin         Origin
	SourceLocator  string
	Kind           MediaKind
	FileName       string
	RelativePath   string
	ByteSize       int64
	MimeType       string
	Width          int
	Height         int
	DurationSec    float64
	ShotAt         time.Time
	ContentHash    string
	PerceptualHash string
	Deleted        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ImportSession is one ingestion run.
type ImportSession struct {
	ID              int64
	Label           string
	RemoteAccount   string
	Status          SessionStatus
	EnqueuedCount   int
	ImportedCount   int
	DuplicateCount  int
	FailedCount     int
	CancelRequested bool
	LastProgressAt  *time.Time
	StatsJSON       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SelectionItem is one file within a session. (SessionID, SourceLocator) is
// unique; lock owner and lock time are always set together.
type SelectionItem struct {
	ID            int64
	SessionID     int64
	Origin        Origin
	SourceLocator string
	Status        ItemStatus
	Attempts      int
	LockOwner     string
	LockedAt      *time.Time
	EntryID       *int64
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Claimed reports whether the item currently carries a worker lock.
func (i SelectionItem) Claimed() bool {
	return i.LockOwner != "" && i.LockedAt != nil
}

// RetryRecord is per-entry bookkeeping for bounded thumbnail regeneration.
// Created lazily on first failure, cleared on success, retained on exhaustion.
type RetryRecord struct {
	ID          int64
	EntryID     int64
	Attempts    int
	ScheduledAt *time.Time
	Force       bool
	BlockReason string
	ClaimedBy   string
	ClaimedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Exhausted reports whether the record has hit its retry budget and is kept
// only for operator visibility.
func (r RetryRecord) Exhausted() bool {
	return r.BlockReason != "" && r.ScheduledAt == nil
}
