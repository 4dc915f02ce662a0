package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error for a missing file: %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestLoadPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lisprc.toml")
	const body = `
[vm]
stack-capacity = 64

[cache]
enabled = true
dir = "/tmp/lisp-cache"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.VM.StackCapacity != 64 {
		t.Errorf("StackCapacity = %d, want 64", cfg.VM.StackCapacity)
	}
	if cfg.VM.MaxCallDepth != 512 {
		t.Errorf("MaxCallDepth = %d, want default 512", cfg.VM.MaxCallDepth)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Dir != "/tmp/lisp-cache" {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestRCPath(t *testing.T) {
	p, err := RCPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p) != ".lisprc.toml" {
		t.Errorf("RCPath() = %q, want basename .lisprc.toml", p)
	}
}
