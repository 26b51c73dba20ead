package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Compile.DecodeWorkers != 4 {
		t.Errorf("decode workers = %d, want 4", cfg.Compile.DecodeWorkers)
	}
	if cfg.Camera.Fy != 500 || cfg.Camera.Height != 480 {
		t.Errorf("camera defaults = %+v", cfg.Camera)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roboscene.yaml")
	doc := `assets:
  search_root: /srv/assets
  scheme_roots:
    model: /srv/models
compile:
  decode_workers: 8
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Assets.SearchRoot != "/srv/assets" {
		t.Errorf("search root = %q", cfg.Assets.SearchRoot)
	}
	if cfg.Assets.SchemeRoots["model"] != "/srv/models" {
		t.Errorf("scheme roots = %v", cfg.Assets.SchemeRoots)
	}
	if cfg.Compile.DecodeWorkers != 8 {
		t.Errorf("decode workers = %d, want 8", cfg.Compile.DecodeWorkers)
	}
	// untouched sections keep their defaults
	if cfg.Camera.Fx != 500 {
		t.Errorf("camera fx = %v, want default 500", cfg.Camera.Fx)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing config file accepted")
	}
}
