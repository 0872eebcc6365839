package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/pyrewrite/internal/config"
)

// TestDefaultConfigFileLoads verifies that the generated file is a valid
// config equal to the defaults.
func TestDefaultConfigFileLoads(t *testing.T) {
	t.Parallel()
	content, err := defaultConfigFile()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(content, "# pyrewrite configuration.") {
		t.Errorf("missing header:\n%s", content)
	}

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mocks.MaxDepth != config.Default().Mocks.MaxDepth {
		t.Errorf("max_depth = %d", cfg.Mocks.MaxDepth)
	}
}

// TestInitWritesFile verifies that init creates the file and reports it on
// stderr.
func TestInitWritesFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "pyrewrite.yaml")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "max_entries: 20") {
		t.Errorf("unexpected content:\n%s", data)
	}
	if !strings.Contains(stderr.String(), "wrote default config to "+path) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

// TestInitKeepsExistingFile verifies that an existing file is only
// replaced with --force.
func TestInitKeepsExistingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "pyrewrite.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{"init", path}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("err = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "logging:\n  level: debug\n" {
		t.Error("existing file was modified")
	}

	if err := run([]string{"init", "--force", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), "level: warn") {
		t.Errorf("file not overwritten:\n%s", data)
	}
}

// TestInitDryRun verifies that --dry-run prints and writes nothing.
func TestInitDryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "pyrewrite.yaml")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(stdout.String(), "formatter:") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("--dry-run must not write the file")
	}
}
