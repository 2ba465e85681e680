package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: /srv/feeds\nserver:\n  addr: \":9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path, "", "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.DataDir != "/srv/feeds" {
		t.Errorf("file values not applied: %+v", cfg)
	}

	cfg, err = loadConfig(path, "127.0.0.1:8081", "testdata")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8081" || cfg.DataDir != "testdata" {
		t.Errorf("flag overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("history:\n  driver: sqlite\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path, "", ""); err == nil {
		t.Fatal("sqlite history without a path should fail validation")
	}
}
