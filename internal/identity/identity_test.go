package identity_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"photoflow/internal/catalog"
	"photoflow/internal/identity"
	"photoflow/internal/media/ffprobe"
	"photoflow/internal/testsupport"
)

func TestContentHashDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	testsupport.WriteFile(t, path, 4096)

	hashA, sizeA, err := identity.ContentHash(context.Background(), path)
	if err != nil {
		t.Fatalf("ContentHash: %v", err)
	}
	if sizeA != 4096 {
		t.Fatalf("size %d, want 4096", sizeA)
	}
	if len(hashA) != 64 {
		t.Fatalf("hash length %d, want 64 hex chars", len(hashA))
	}

	hashB, _, err := identity.ContentHash(context.Background(), path)
	if err != nil {
		t.Fatalf("second ContentHash: %v", err)
	}
	if hashA != hashB {
		t.Fatalf("hash not deterministic: %s vs %s", hashA, hashB)
	}
}

func TestContentHashMissingFile(t *testing.T) {
	_, _, err := identity.ContentHash(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPerceptualHashStableAcrossEncodings(t *testing.T) {
	// The same pixels encoded twice must produce the same fingerprint.
	first := testsupport.EncodeJPEG(t, 256, 192, 10)
	second := testsupport.EncodeJPEG(t, 256, 192, 10)

	hashA, err := identity.PerceptualHashFromBytes(first)
	if err != nil {
		t.Fatalf("PerceptualHashFromBytes: %v", err)
	}
	hashB, err := identity.PerceptualHashFromBytes(second)
	if err != nil {
		t.Fatalf("second PerceptualHashFromBytes: %v", err)
	}
	if hashA != hashB {
		t.Fatalf("hashes differ: %s vs %s", hashA, hashB)
	}
	if len(hashA) != 16 {
		t.Fatalf("hash %q is not 16 hex chars", hashA)
	}
}

func TestShotAtFromFilename(t *testing.T) {
	cases := []struct {
		name string
		file string
		want time.Time
		ok   bool
	}{
		{"android", "IMG_20240815_143052.jpg", time.Date(2024, 8, 15, 14, 30, 52, 0, time.UTC), true},
		{"pixel", "PXL_20240815_143052123.mp4", time.Date(2024, 8, 15, 14, 30, 52, 0, time.UTC), true},
		{"compact", "20240815143052.jpg", time.Date(2024, 8, 15, 14, 30, 52, 0, time.UTC), true},
		{"invalid month", "IMG_20241340_143052.jpg", time.Time{}, false},
		{"no pattern", "vacation.jpg", time.Time{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := identity.ShotAtFromFilename(tc.file, time.UTC)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Fatalf("shotAt = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestShotAtFromFilenameHonorsLocation(t *testing.T) {
	loc := time.FixedZone("plus2", 2*3600)
	got, ok := identity.ShotAtFromFilename("IMG_20240815_143052.jpg", loc)
	if !ok {
		t.Fatal("expected a match")
	}
	want := time.Date(2024, 8, 15, 12, 30, 52, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("shotAt = %v, want %v", got, want)
	}
}

func TestFrameOffset(t *testing.T) {
	cases := []struct {
		name     string
		duration float64
		capSec   int
		want     float64
	}{
		{"midpoint", 10, 60, 5},
		{"capped", 600, 60, 60},
		{"zero duration", 0, 60, 0},
		{"no cap", 600, 0, 300},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := identity.FrameOffset(tc.duration, tc.capSec); got != tc.want {
				t.Fatalf("FrameOffset(%v, %d) = %v, want %v", tc.duration, tc.capSec, got, tc.want)
			}
		})
	}
}

type stubProber struct {
	result ffprobe.Result
	err    error
}

func (s stubProber) Probe(context.Context, string) (ffprobe.Result, error) {
	return s.result, s.err
}

type stubExtractor struct {
	frame []byte
	err   error
}

func (s stubExtractor) ExtractFrame(context.Context, string, float64) ([]byte, error) {
	return s.frame, s.err
}

func TestResolveImage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_20240815_143052.jpg")
	testsupport.WriteJPEG(t, path, 320, 240, 3)

	resolver := identity.NewResolver(cfg, nil, stubProber{}, stubExtractor{})
	candidate, err := resolver.Resolve(context.Background(), path, catalog.OriginLocal, catalog.KindImage)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if candidate.Width != 320 || candidate.Height != 240 {
		t.Fatalf("dimensions %dx%d, want 320x240", candidate.Width, candidate.Height)
	}
	if candidate.ContentHash == "" || candidate.PerceptualHash == "" {
		t.Fatalf("hashes missing: %+v", candidate)
	}
	if candidate.MimeType != "image/jpeg" {
		t.Fatalf("mime %q, want image/jpeg", candidate.MimeType)
	}
	// The synthetic JPEG has no EXIF, so the filename timestamp wins.
	want := time.Date(2024, 8, 15, 14, 30, 52, 0, time.UTC)
	if !candidate.ShotAt.Equal(want) {
		t.Fatalf("shotAt %v, want %v", candidate.ShotAt, want)
	}
}

func TestResolveVideoUsesProbeAndFrame(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	testsupport.WriteFile(t, path, 2048)

	prober := stubProber{result: ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "video", Width: 1280, Height: 720}},
		Format: ffprobe.Format{
			Duration: "20.0",
			Tags:     map[string]string{"creation_time": "2024-08-15T14:30:52.000000Z"},
		},
	}}
	extractor := stubExtractor{frame: testsupport.EncodeJPEG(t, 64, 64, 7)}

	resolver := identity.NewResolver(cfg, nil, prober, extractor)
	candidate, err := resolver.Resolve(context.Background(), path, catalog.OriginLocal, catalog.KindVideo)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if candidate.Width != 1280 || candidate.Height != 720 {
		t.Fatalf("dimensions %dx%d", candidate.Width, candidate.Height)
	}
	if candidate.DurationSec != 20 {
		t.Fatalf("duration %v, want 20", candidate.DurationSec)
	}
	if candidate.PerceptualHash == "" {
		t.Fatal("expected perceptual hash from extracted frame")
	}
	want := time.Date(2024, 8, 15, 14, 30, 52, 0, time.UTC)
	if !candidate.ShotAt.Equal(want) {
		t.Fatalf("shotAt %v, want %v", candidate.ShotAt, want)
	}
}

func TestResolveImageToleratesUndecodableFormat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	// No HEIC decoder is registered; the resolver must degrade to the
	// content hash instead of failing the file.
	path := filepath.Join(dir, "IMG_20240815_143052.heic")
	testsupport.WriteFile(t, path, 512)

	resolver := identity.NewResolver(cfg, nil, stubProber{}, stubExtractor{})
	candidate, err := resolver.Resolve(context.Background(), path, catalog.OriginLocal, catalog.KindImage)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if candidate.ContentHash == "" {
		t.Fatal("content hash must still be computed")
	}
	if candidate.PerceptualHash != "" || candidate.Width != 0 || candidate.Height != 0 {
		t.Fatalf("expected absent image metadata, got %+v", candidate)
	}
	want := time.Date(2024, 8, 15, 14, 30, 52, 0, time.UTC)
	if !candidate.ShotAt.Equal(want) {
		t.Fatalf("shot at %v, want filename fallback %v", candidate.ShotAt, want)
	}
}

func TestResolveVideoToleratesProbeFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	testsupport.WriteFile(t, path, 2048)

	prober := stubProber{err: errors.New("ffprobe exited 1")}
	extractor := stubExtractor{frame: testsupport.EncodeJPEG(t, 64, 64, 7)}

	resolver := identity.NewResolver(cfg, nil, prober, extractor)
	candidate, err := resolver.Resolve(context.Background(), path, catalog.OriginLocal, catalog.KindVideo)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if candidate.Width != 0 || candidate.DurationSec != 0 {
		t.Fatalf("expected absent stream metadata, got %+v", candidate)
	}
	if candidate.PerceptualHash == "" {
		t.Fatal("frame extraction still runs when the probe fails")
	}
	if candidate.ContentHash == "" {
		t.Fatal("content hash must still be computed")
	}
}

func TestResolveVideoToleratesFrameFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	testsupport.WriteFile(t, path, 2048)

	prober := stubProber{result: ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "video", Width: 640, Height: 480}},
		Format:  ffprobe.Format{Duration: "5.0"},
	}}
	extractor := stubExtractor{err: bytes.ErrTooLarge}

	resolver := identity.NewResolver(cfg, nil, prober, extractor)
	candidate, err := resolver.Resolve(context.Background(), path, catalog.OriginLocal, catalog.KindVideo)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if candidate.PerceptualHash != "" {
		t.Fatalf("expected empty perceptual hash, got %q", candidate.PerceptualHash)
	}
	if candidate.ContentHash == "" {
		t.Fatal("content hash must still be computed")
	}
}
