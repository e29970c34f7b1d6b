package deps

import (
	"os"
	"path/filepath"
	"testing"

	"goggles/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command result: %#v", results[2])
	}
}

func TestCheckBinariesResolvesFromPath(t *testing.T) {
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, "mysql"), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	results := CheckBinaries([]Requirement{{Name: "SQL client", Command: "mysql"}})
	if !results[0].Available {
		t.Fatalf("expected mysql stub on PATH to be found: %#v", results[0])
	}
	if results[0].Detail != filepath.Join(binDir, "mysql") {
		t.Fatalf("expected resolved path in detail, got %q", results[0].Detail)
	}
}

func TestRequirementsFollowExecutor(t *testing.T) {
	cfg := config.Default()
	cfg.Database.ClientBinary = "mariadb"

	reqs := Requirements(&cfg)
	if len(reqs) != 1 || reqs[0].Command != "mariadb" || reqs[0].Optional {
		t.Fatalf("client executor must require the client binary: %#v", reqs)
	}

	cfg.Database.Executor = config.ExecutorDriver
	reqs = Requirements(&cfg)
	if !reqs[0].Optional {
		t.Fatalf("driver executor should make the client optional: %#v", reqs)
	}
}
