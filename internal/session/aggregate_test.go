package session_test

import (
	"testing"

	"photoflow/internal/catalog"
	"photoflow/internal/session"
)

func TestAggregate(t *testing.T) {
	cases := []struct {
		name   string
		counts session.Counts
		cancel bool
		want   catalog.SessionStatus
	}{
		{
			name:   "no items",
			counts: session.Counts{},
			want:   catalog.SessionReady,
		},
		{
			name:   "still running",
			counts: session.Counts{catalog.ItemRunning: 1, catalog.ItemImported: 3},
			want:   catalog.SessionProcessing,
		},
		{
			name:   "still enqueued",
			counts: session.Counts{catalog.ItemEnqueued: 2},
			want:   catalog.SessionProcessing,
		},
		{
			name:   "all imported",
			counts: session.Counts{catalog.ItemImported: 4},
			want:   catalog.SessionImported,
		},
		{
			name:   "dups count as success",
			counts: session.Counts{catalog.ItemImported: 2, catalog.ItemDup: 2},
			want:   catalog.SessionImported,
		},
		{
			name:   "expired count as success",
			counts: session.Counts{catalog.ItemImported: 1, catalog.ItemExpired: 1},
			want:   catalog.SessionImported,
		},
		{
			name:   "any failure marks error",
			counts: session.Counts{catalog.ItemImported: 3, catalog.ItemFailed: 1},
			want:   catalog.SessionError,
		},
		{
			name:   "cancel wins over everything",
			counts: session.Counts{catalog.ItemImported: 3, catalog.ItemFailed: 1},
			cancel: true,
			want:   catalog.SessionCanceled,
		},
		{
			name:   "cancel wins over empty",
			counts: session.Counts{},
			cancel: true,
			want:   catalog.SessionCanceled,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := session.Aggregate(tc.counts, tc.cancel); got != tc.want {
				t.Fatalf("Aggregate(%v, %v) = %q, want %q", tc.counts, tc.cancel, got, tc.want)
			}
		})
	}
}

func TestCountsSumToTotal(t *testing.T) {
	counts := session.Counts{
		catalog.ItemImported: 2,
		catalog.ItemDup:      1,
		catalog.ItemFailed:   1,
		catalog.ItemEnqueued: 3,
	}
	if counts.Total() != 7 {
		t.Fatalf("Total() = %d, want 7", counts.Total())
	}
	if counts.Active() != 3 {
		t.Fatalf("Active() = %d, want 3", counts.Active())
	}
}
