package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photoflow/internal/testsupport"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
library_dir = %q
staging_dir = %q
log_dir = %q
data_dir = %q

[import]
workers = 2

[thumbnails]
dir = %q
`,
		filepath.Join(base, "library"),
		filepath.Join(base, "staging"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "data"),
		filepath.Join(base, "thumbs"),
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestSessionsEmptyCatalog(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "No import sessions recorded.")
}

func TestItemsRejectsBadSessionID(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := runCLI(t, "--config", cfgPath, "items", "nonsense"); err == nil {
		t.Fatal("expected invalid session id error")
	}
}

func TestItemsRejectsUnknownStatus(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := runCLI(t, "--config", cfgPath, "items", "1", "--status", "bogus"); err == nil {
		t.Fatal("expected unknown status error")
	}
}

func TestConfigShowRedactsToken(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[paths]")
	requireContains(t, out, "[thumbnails]")
}

func TestScanReportsNothingPending(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "Catalog holds 0 entries.")
	requireContains(t, out, "No unfinished or failed sessions.")
}

func TestRetryRequiresTargetOrWindow(t *testing.T) {
	cfgPath := writeTestConfig(t)

	_, err := runCLI(t, "--config", cfgPath, "retry")
	if err == nil || !strings.Contains(err.Error(), "session id or --since") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestSyncRequiresRemoteEnabled(t *testing.T) {
	cfgPath := writeTestConfig(t)

	_, err := runCLI(t, "--config", cfgPath, "sync")
	if err == nil || !strings.Contains(err.Error(), "remote sync is disabled") {
		t.Fatalf("expected disabled-remote error, got %v", err)
	}
}

func TestImportEndToEnd(t *testing.T) {
	cfgPath := writeTestConfig(t)

	source := t.TempDir()
	testsupport.WriteJPEG(t, filepath.Join(source, "IMG_20240815_143052.jpg"), 320, 240, 7)

	out, err := runCLI(t, "--config", cfgPath, "import", source, "--label", "vacation", "--no-progress")
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	requireContains(t, out, "vacation")
	requireContains(t, out, "imported")

	out, err = runCLI(t, "--config", cfgPath, "sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "vacation")

	// The single import produced entry 1; removing it frees the content hash.
	out, err = runCLI(t, "--config", cfgPath, "remove", "1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "Entry 1 removed")

	if _, err := runCLI(t, "--config", cfgPath, "remove", "1"); err == nil {
		t.Fatal("expected removing an already-removed entry to fail")
	}
}

func TestImportMissingRootExitsNonZero(t *testing.T) {
	cfgPath := writeTestConfig(t)

	_, err := runCLI(t, "--config", cfgPath, "import", filepath.Join(t.TempDir(), "absent"), "--no-progress")
	if err == nil {
		t.Fatal("expected import of a missing directory to fail")
	}
	if !strings.Contains(err.Error(), "finished with failures") {
		t.Fatalf("expected session failure error, got %v", err)
	}
}
