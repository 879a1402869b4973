package discovery_test

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"photoflow/internal/catalog"
	"photoflow/internal/discovery"
	"photoflow/internal/services"
	"photoflow/internal/testsupport"
)

func TestScanFiltersAndOrders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "b.jpg"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "a.mp4"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "sub", "c.png"), 10)
	testsupport.WriteFile(t, filepath.Join(root, ".hidden", "d.jpg"), 10)

	scanner := discovery.NewScanner(cfg, nil)
	items, cleanup, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer cleanup()

	if len(items) != 3 {
		t.Fatalf("found %d items, want 3: %+v", len(items), items)
	}
	if filepath.Base(items[0].Path) != "a.mp4" || items[0].Kind != catalog.KindVideo {
		t.Fatalf("first item %+v", items[0])
	}
	if filepath.Base(items[1].Path) != "b.jpg" || items[1].Kind != catalog.KindImage {
		t.Fatalf("second item %+v", items[1])
	}
	if filepath.Base(items[2].Path) != "c.png" {
		t.Fatalf("third item %+v", items[2])
	}
}

func TestScanMissingRootIsPrecondition(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	scanner := discovery.NewScanner(cfg, nil)

	_, cleanup, err := scanner.Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	defer cleanup()
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestScanExpandsZipAndCleansUp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := t.TempDir()

	archivePath := filepath.Join(root, "batch.zip")
	writeZip(t, archivePath, map[string][]byte{
		"inner/photo.jpg": []byte("jpegdata"),
		"inner/notes.txt": []byte("skip me"),
	})

	scanner := discovery.NewScanner(cfg, nil)
	items, cleanup, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("found %d items, want 1: %+v", len(items), items)
	}
	extracted := items[0].Path
	if filepath.Base(extracted) != "photo.jpg" {
		t.Fatalf("unexpected extracted item %q", extracted)
	}
	if _, err := os.Stat(extracted); err != nil {
		t.Fatalf("extracted file missing before cleanup: %v", err)
	}

	cleanup()
	if _, err := os.Stat(extracted); !os.IsNotExist(err) {
		t.Fatalf("extracted file survived cleanup: %v", err)
	}
}

func TestScanSkipsZipWhenExpansionDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Import.ExpandArchives = false
	root := t.TempDir()
	writeZip(t, filepath.Join(root, "batch.zip"), map[string][]byte{
		"photo.jpg": []byte("jpegdata"),
	})

	scanner := discovery.NewScanner(cfg, nil)
	items, cleanup, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer cleanup()
	if len(items) != 0 {
		t.Fatalf("expected no items, got %+v", items)
	}
}

func TestKindForPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	scanner := discovery.NewScanner(cfg, nil)

	cases := []struct {
		path string
		kind catalog.MediaKind
		ok   bool
	}{
		{"a.JPG", catalog.KindImage, true},
		{"b.heic", catalog.KindImage, true},
		{"c.mov", catalog.KindVideo, true},
		{"d.txt", "", false},
		{"noext", "", false},
	}
	for _, tc := range cases {
		kind, ok := scanner.KindForPath(tc.path)
		if ok != tc.ok || kind != tc.kind {
			t.Fatalf("KindForPath(%q) = (%q, %v), want (%q, %v)", tc.path, kind, ok, tc.kind, tc.ok)
		}
	}
}

func writeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer file.Close()

	writer := zip.NewWriter(file)
	for name, data := range entries {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := entry.Write(data); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}
