package dedup

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewPublicID derives the stable public identifier for a new catalog entry
// from its capture timestamp and content hash prefix, e.g.
// "20240815-143052-9f3a2b1c". Identifiers sort chronologically.
func NewPublicID(shotAt time.Time, contentHash string) string {
	prefix := contentHash
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s-%s", shotAt.UTC().Format("20060102-150405"), prefix)
}

// Resequence derives a fresh non-conflicting identifier after a uniqueness
// collision. Only the colliding identifier is regenerated; callers retry the
// write once with the new value and fail the single item, not the batch, if
// it collides again.
func Resequence(publicID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return publicID + "-" + suffix
}
