package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.SpeedMph != 30 || cfg.MaxTimeSeconds != 300 || cfg.DayStart != "08:00" {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "port: \"9090\"\nspeedMph: 25\ndayStart: \"07:30\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPEED_MPH", "40")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port from file: %s", cfg.Port)
	}
	if cfg.SpeedMph != 40 {
		t.Fatalf("env should beat file: %v", cfg.SpeedMph)
	}
	if cfg.DayStart != "07:30" || cfg.RedisURL == "" {
		t.Fatalf("overlay: %+v", cfg)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
}
