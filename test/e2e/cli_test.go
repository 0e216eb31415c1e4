package e2e

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const e2eDataset = `{
	"version": "2022",
	"entries": [
		{"code": "51", "title": "Information"},
		{"code": "518", "title": "Computing Infrastructure Providers, Data Processing, Web Hosting, and Related Services", "parent": "51"},
		{"code": "5182", "title": "Data Processing, Hosting, and Related Services", "parent": "518"},
		{"code": "51821", "title": "Data Processing, Hosting, and Related Services", "parent": "5182"},
		{"code": "518210", "title": "Data Processing, Hosting, and Related Services", "parent": "51821"}
	]
}`

// runCLI executes the built binary with an isolated HOME so the config
// loader writes its first-run file into the test sandbox, never the real
// home directory. Returns combined output and the exit code.
func runCLI(t *testing.T, home string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(cliBinary, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return string(out), 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	t.Fatalf("Failed to run CLI: %v\nOutput: %s", err, out)
	return "", -1
}

func writeTempDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}
	return path
}

// TestSearchCommand verifies the offline search loop: load -> build -> rank.
// Output goes through a pipe here, so the command must emit plain
// tab-separated rows rather than the terminal table.
func TestSearchCommand(t *testing.T) {
	home := t.TempDir()
	dataset := writeTempDataset(t, e2eDataset)

	out, code := runCLI(t, home, "search", "data", "processing", "--dataset", dataset)
	if code != 0 {
		t.Fatalf("search exited %d. Output:\n%s", code, out)
	}

	if !strings.Contains(out, "5182\tData Processing, Hosting, and Related Services") {
		t.Errorf("Expected a plain row for 5182.\nOutput: %s", out)
	}
	if strings.Contains(out, "CODE\tLEVEL") {
		t.Errorf("Piped output must not include the terminal table header.\nOutput: %s", out)
	}
}

func TestSearchCommand_JSON(t *testing.T) {
	home := t.TempDir()
	dataset := writeTempDataset(t, e2eDataset)

	out, code := runCLI(t, home, "search", "518", "--dataset", dataset, "--json")
	if code != 0 {
		t.Fatalf("search --json exited %d. Output:\n%s", code, out)
	}

	if !strings.Contains(out, `"query": "518"`) {
		t.Errorf("JSON output missing query field.\nOutput: %s", out)
	}
	if !strings.Contains(out, `"rank": "exact_code"`) {
		t.Errorf("JSON output missing the exact_code rank.\nOutput: %s", out)
	}
}

// TestValidateCommand walks the three exit tiers: 0 for a servable dataset,
// 1 for structural findings, 2 for a file that cannot be read at all.
func TestValidateCommand(t *testing.T) {
	home := t.TempDir()

	t.Run("Valid_Dataset", func(t *testing.T) {
		dataset := writeTempDataset(t, e2eDataset)
		out, code := runCLI(t, home, "validate", dataset)
		if code != 0 {
			t.Fatalf("validate exited %d for a valid dataset. Output:\n%s", code, out)
		}
		if !strings.Contains(out, "is valid") || !strings.Contains(out, "5 nodes") {
			t.Errorf("Expected validity summary.\nOutput: %s", out)
		}
	})

	t.Run("Structural_Findings", func(t *testing.T) {
		// Entries decode fine; the violations are structural: a depth gap
		// (5182 hangs directly off 51) and a missing parent (61 is absent).
		dataset := writeTempDataset(t, `{
			"version": "2022",
			"entries": [
				{"code": "51", "title": "Information"},
				{"code": "5182", "title": "Depth Gap", "parent": "51"},
				{"code": "613", "title": "Orphan", "parent": "61"}
			]
		}`)
		out, code := runCLI(t, home, "validate", dataset)
		if code != 1 {
			t.Fatalf("validate exited %d for structural findings, want 1. Output:\n%s", code, out)
		}
		if !strings.Contains(out, "2 finding(s)") {
			t.Errorf("Expected both findings reported in one pass.\nOutput: %s", out)
		}
	})

	t.Run("Unreadable_Dataset", func(t *testing.T) {
		dataset := writeTempDataset(t, "not json at all {{{")
		out, code := runCLI(t, home, "validate", dataset)
		if code != 2 {
			t.Fatalf("validate exited %d for garbage input, want 2. Output:\n%s", code, out)
		}
	})

	t.Run("Missing_File", func(t *testing.T) {
		out, code := runCLI(t, home, "validate", filepath.Join(t.TempDir(), "nope.json"))
		if code != 2 {
			t.Fatalf("validate exited %d for a missing file, want 2. Output:\n%s", code, out)
		}
		if !strings.Contains(out, "not found") {
			t.Errorf("Expected a not-found message.\nOutput: %s", out)
		}
	})
}

// TestFetchCommand_BadKeyPath exercises the GCS client construction error
// path through the real binary. No network involved; the stat check on the
// key file fails first.
func TestFetchCommand_BadKeyPath(t *testing.T) {
	home := t.TempDir()

	out, code := runCLI(t, home, "fetch", "datasets/naics_2022.json",
		"--sa-key", filepath.Join(t.TempDir(), "missing-key.json"))
	if code != 1 {
		t.Fatalf("fetch exited %d with a bad key path, want 1. Output:\n%s", code, out)
	}
	if !strings.Contains(out, "service account key not found") {
		t.Errorf("Expected the key-not-found error.\nOutput: %s", out)
	}
}
