package harness

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverBinaries(t *testing.T) {
	dir := t.TempDir()

	writeFile := func(name string, mode os.FileMode) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), mode); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	writeFile("fairy-stockfish", 0o755)
	writeFile("stockfish-classic", 0o755)
	writeFile("readme.md", 0o644)
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	binaries, err := DiscoverBinaries(dir)
	if err != nil {
		t.Fatalf("DiscoverBinaries: %v", err)
	}
	want := []string{
		filepath.Join(dir, "fairy-stockfish"),
		filepath.Join(dir, "stockfish-classic"),
	}
	if len(binaries) != len(want) {
		t.Fatalf("binaries = %v, want %v", binaries, want)
	}
	for i := range want {
		if binaries[i] != want[i] {
			t.Fatalf("binaries = %v, want %v", binaries, want)
		}
	}
}

func TestDiscoverBinariesEmptyDir(t *testing.T) {
	binaries, err := DiscoverBinaries(t.TempDir())
	if err != nil {
		t.Fatalf("DiscoverBinaries: %v", err)
	}
	if len(binaries) != 0 {
		t.Fatalf("binaries = %v, want none", binaries)
	}
}

func TestDiscoverBinariesMissingDir(t *testing.T) {
	if _, err := DiscoverBinaries(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("missing dir must fail")
	}
}
