// Package session derives an import session's status from its persisted item
// states. Aggregation is a pure function of the counts so a session's truth
// can always be recomputed from the database after a crash.
package session

import (
	"photoflow/internal/catalog"
)

// Counts summarizes a session's items grouped by status, as reported by the
// catalog store.
type Counts map[catalog.ItemStatus]int

// Total sums all items regardless of status.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Active counts items that have not yet reached a terminal status.
func (c Counts) Active() int {
	return c[catalog.ItemPending] + c[catalog.ItemEnqueued] + c[catalog.ItemRunning]
}

// Aggregate maps item counts to a session status. Rules, in order:
//
//   - cancelRequested always wins once set;
//   - no items at all is a degenerate success (ready);
//   - any non-terminal item keeps the session processing;
//   - otherwise any failure marks the run error, else imported.
func Aggregate(counts Counts, cancelRequested bool) catalog.SessionStatus {
	if cancelRequested {
		return catalog.SessionCanceled
	}
	if counts.Total() == 0 {
		return catalog.SessionReady
	}
	if counts.Active() > 0 {
		return catalog.SessionProcessing
	}
	if counts[catalog.ItemFailed] > 0 {
		return catalog.SessionError
	}
	return catalog.SessionImported
}
