package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photoflow/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("expected missing config, got exists for %s", path)
	}
	if cfg.Import.Workers != 4 {
		t.Fatalf("expected default workers 4, got %d", cfg.Import.Workers)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console format, got %q", cfg.Logging.Format)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		"[paths]",
		`library_dir = "` + filepath.Join(dir, "library") + `"`,
		`staging_dir = "` + filepath.Join(dir, "staging") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		"[import]",
		"workers = 2",
		`image_extensions = ["JPG", "png"]`,
		"[logging]",
		`format = "JSON"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Import.Workers != 2 {
		t.Fatalf("workers = %d, want 2", cfg.Import.Workers)
	}
	for i, want := range []string{".jpg", ".png"} {
		if cfg.Import.ImageExtensions[i] != want {
			t.Fatalf("image extension %d = %q, want %q", i, cfg.Import.ImageExtensions[i], want)
		}
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q, want json", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	cfg := config.Default()
	cfg.Import.DefaultTimezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestValidateRequiresRemoteSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Remote.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when remote enabled without base_url")
	}
}
