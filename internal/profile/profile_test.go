package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/park285/fairy-eval-harness/internal/evaltable"
)

func TestEmbeddedProfiles(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	variant, err := c.Get("variant")
	if err != nil {
		t.Fatalf("Get variant: %v", err)
	}
	cfg, err := variant.CaptureConfig()
	if err != nil {
		t.Fatalf("CaptureConfig: %v", err)
	}
	if cfg.Decode.Sentinel != evaltable.SentinelLeading || !cfg.Decode.Strict {
		t.Fatalf("variant profile decoded wrong: %+v", cfg.Decode)
	}
	if cfg.TerminatorPrefix != "Final" || len(cfg.StartMarkers) != 2 {
		t.Fatalf("variant framing wrong: %+v", cfg)
	}

	classical, err := c.Get("classical")
	if err != nil {
		t.Fatalf("Get classical: %v", err)
	}
	ccfg, err := classical.CaptureConfig()
	if err != nil {
		t.Fatalf("CaptureConfig: %v", err)
	}
	if ccfg.Decode.Sentinel != evaltable.SentinelTrailing || ccfg.Decode.HeaderSkip != 2 || ccfg.Decode.Strict {
		t.Fatalf("classical profile decoded wrong: %+v", ccfg.Decode)
	}
}

func TestUnknownProfile(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Get("nnue"); err == nil {
		t.Fatalf("unknown profile must fail")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "variant:\n" +
		"  start_markers: [begin report]\n" +
		"  terminator_prefix: end report\n" +
		"  sentinel: leading\n" +
		"  strict: true\n" +
		"nnue:\n" +
		"  start_markers: [info string NNUE]\n" +
		"  terminator_prefix: Final\n" +
		"  sentinel: trailing\n"
	if err := os.WriteFile(filepath.Join(dir, "10-local.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	variant, err := c.Get("variant")
	if err != nil {
		t.Fatalf("Get variant: %v", err)
	}
	if variant.TerminatorPrefix != "end report" {
		t.Fatalf("override not applied: %+v", variant)
	}
	if _, err := c.Get("nnue"); err != nil {
		t.Fatalf("added profile missing: %v", err)
	}
}

func TestBadProfileRejectedAtLoad(t *testing.T) {
	dir := t.TempDir()
	bad := "broken:\n  sentinel: sideways\n"
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("invalid sentinel position must fail at load")
	}

	dir2 := t.TempDir()
	skip := "broken:\n  sentinel: leading\n  header_skip: 1\n"
	if err := os.WriteFile(filepath.Join(dir2, "bad.yaml"), []byte(skip), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if _, err := New(dir2); err == nil {
		t.Fatalf("unsupported header_skip must fail at load")
	}
}
