package dedup_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"photoflow/internal/catalog"
	"photoflow/internal/dedup"
)

type fakeStore struct {
	byPerceptual map[string][]*catalog.CatalogEntry
	byContent    map[string]*catalog.CatalogEntry
}

func (f *fakeStore) EntriesByPerceptualHash(_ context.Context, kind catalog.MediaKind, hash string) ([]*catalog.CatalogEntry, error) {
	var matches []*catalog.CatalogEntry
	for _, entry := range f.byPerceptual[hash] {
		if entry.Kind == kind {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}

func (f *fakeStore) FindEntryByContentHash(_ context.Context, hash string, byteSize int64) (*catalog.CatalogEntry, error) {
	entry := f.byContent[hash]
	if entry == nil || entry.ByteSize != byteSize {
		return nil, nil
	}
	return entry, nil
}

var shotAt = time.Date(2024, 8, 15, 14, 30, 52, 0, time.UTC)

func imageCandidate() *catalog.MediaCandidate {
	return &catalog.MediaCandidate{
		Kind:           catalog.KindImage,
		FileName:       "a.jpg",
		ByteSize:       1000,
		Width:          800,
		Height:         600,
		ShotAt:         shotAt,
		ContentHash:    "content-a",
		PerceptualHash: "aaaaaaaaaaaaaaaa",
	}
}

func TestClassifyNewWhenCatalogEmpty(t *testing.T) {
	matcher := dedup.NewMatcher(&fakeStore{}, nil)
	verdict, err := matcher.Classify(context.Background(), imageCandidate())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if verdict.Duplicate {
		t.Fatalf("expected new, got %+v", verdict)
	}
}

func TestClassifyExactMatch(t *testing.T) {
	entry := &catalog.CatalogEntry{
		ID: 7, Kind: catalog.KindImage, Width: 800, Height: 600,
		ShotAt: shotAt, PerceptualHash: "aaaaaaaaaaaaaaaa",
	}
	store := &fakeStore{byPerceptual: map[string][]*catalog.CatalogEntry{
		"aaaaaaaaaaaaaaaa": {entry},
	}}

	verdict, err := dedup.NewMatcher(store, nil).Classify(context.Background(), imageCandidate())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !verdict.Duplicate || verdict.EntryID != 7 || verdict.Tier != dedup.TierExact {
		t.Fatalf("verdict %+v", verdict)
	}
}

func TestClassifyExactMatchRequiresDurationForVideo(t *testing.T) {
	entry := &catalog.CatalogEntry{
		ID: 3, Kind: catalog.KindVideo, Width: 1280, Height: 720,
		ShotAt: shotAt, DurationSec: 30, PerceptualHash: "bbbbbbbbbbbbbbbb",
	}
	store := &fakeStore{byPerceptual: map[string][]*catalog.CatalogEntry{
		"bbbbbbbbbbbbbbbb": {entry},
	}}

	candidate := &catalog.MediaCandidate{
		Kind: catalog.KindVideo, Width: 1280, Height: 720,
		ShotAt: shotAt, DurationSec: 45,
		ContentHash: "content-v", PerceptualHash: "bbbbbbbbbbbbbbbb",
	}
	verdict, err := dedup.NewMatcher(store, nil).Classify(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	// Duration mismatch demotes the match from exact to perceptual.
	if !verdict.Duplicate || verdict.Tier != dedup.TierPerceptual {
		t.Fatalf("verdict %+v", verdict)
	}
}

func TestClassifyPerceptualPrefersMetadataMatch(t *testing.T) {
	plain := &catalog.CatalogEntry{
		ID: 1, Kind: catalog.KindImage, Width: 100, Height: 100,
		PerceptualHash: "aaaaaaaaaaaaaaaa",
	}
	sameDims := &catalog.CatalogEntry{
		ID: 2, Kind: catalog.KindImage, Width: 800, Height: 600,
		ShotAt:         shotAt.Add(time.Hour),
		PerceptualHash: "aaaaaaaaaaaaaaaa",
	}
	store := &fakeStore{byPerceptual: map[string][]*catalog.CatalogEntry{
		"aaaaaaaaaaaaaaaa": {plain, sameDims},
	}}

	verdict, err := dedup.NewMatcher(store, nil).Classify(context.Background(), imageCandidate())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !verdict.Duplicate || verdict.EntryID != 2 || verdict.Tier != dedup.TierPerceptual {
		t.Fatalf("verdict %+v", verdict)
	}
}

func TestClassifyPerceptualFallsBackToFirst(t *testing.T) {
	first := &catalog.CatalogEntry{ID: 1, Kind: catalog.KindImage, Width: 10, Height: 10, PerceptualHash: "aaaaaaaaaaaaaaaa"}
	second := &catalog.CatalogEntry{ID: 2, Kind: catalog.KindImage, Width: 20, Height: 20, PerceptualHash: "aaaaaaaaaaaaaaaa"}
	store := &fakeStore{byPerceptual: map[string][]*catalog.CatalogEntry{
		"aaaaaaaaaaaaaaaa": {first, second},
	}}

	verdict, err := dedup.NewMatcher(store, nil).Classify(context.Background(), imageCandidate())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !verdict.Duplicate || verdict.EntryID != 1 {
		t.Fatalf("verdict %+v", verdict)
	}
}

func TestClassifyPerceptualScopedToKind(t *testing.T) {
	videoEntry := &catalog.CatalogEntry{ID: 9, Kind: catalog.KindVideo, PerceptualHash: "aaaaaaaaaaaaaaaa"}
	store := &fakeStore{byPerceptual: map[string][]*catalog.CatalogEntry{
		"aaaaaaaaaaaaaaaa": {videoEntry},
	}}

	verdict, err := dedup.NewMatcher(store, nil).Classify(context.Background(), imageCandidate())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if verdict.Duplicate {
		t.Fatalf("cross-kind perceptual match must not count: %+v", verdict)
	}
}

func TestClassifyCryptographicFallback(t *testing.T) {
	entry := &catalog.CatalogEntry{ID: 4, Kind: catalog.KindVideo, ByteSize: 1000, ContentHash: "content-a"}
	store := &fakeStore{byContent: map[string]*catalog.CatalogEntry{"content-a": entry}}

	candidate := imageCandidate()
	candidate.PerceptualHash = ""
	verdict, err := dedup.NewMatcher(store, nil).Classify(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !verdict.Duplicate || verdict.EntryID != 4 || verdict.Tier != dedup.TierCryptographic {
		t.Fatalf("verdict %+v", verdict)
	}
}

func TestClassifyCryptographicRequiresSize(t *testing.T) {
	entry := &catalog.CatalogEntry{ID: 4, ByteSize: 2000, ContentHash: "content-a"}
	store := &fakeStore{byContent: map[string]*catalog.CatalogEntry{"content-a": entry}}

	candidate := imageCandidate()
	candidate.PerceptualHash = ""
	verdict, err := dedup.NewMatcher(store, nil).Classify(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if verdict.Duplicate {
		t.Fatalf("size mismatch must not match: %+v", verdict)
	}
}

func TestNewPublicID(t *testing.T) {
	id := dedup.NewPublicID(shotAt, "9f3a2b1c77fe0012")
	if id != "20240815-143052-9f3a2b1c" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestResequenceProducesDistinctIDs(t *testing.T) {
	base := "20240815-143052-9f3a2b1c"
	first := dedup.Resequence(base)
	second := dedup.Resequence(base)
	if !strings.HasPrefix(first, base+"-") {
		t.Fatalf("resequenced id %q does not extend base", first)
	}
	if first == second {
		t.Fatalf("resequencing produced identical ids: %q", first)
	}
}
