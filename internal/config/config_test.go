package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-file.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != ":8080" || cfg.WeekStart != "sunday" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "admin_device_id: 0be2f871-aa42-4258-81b4-383dd7bf1860\nweek_start: monday\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AdminDeviceID != "0be2f871-aa42-4258-81b4-383dd7bf1860" {
		t.Errorf("AdminDeviceID = %q", cfg.AdminDeviceID)
	}
	if cfg.WeekStart != "monday" {
		t.Errorf("WeekStart = %q", cfg.WeekStart)
	}
	// Unset values keep defaults.
	if cfg.Listen != ":8080" || cfg.DBPath != "data/whenbabe.db" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- broken"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestNormalize_UnknownWeekStart(t *testing.T) {
	cfg := &Config{WeekStart: "friday"}
	cfg.Normalize()
	if cfg.WeekStart != "sunday" {
		t.Errorf("WeekStart = %q, want sunday fallback", cfg.WeekStart)
	}
}

func TestWeekStartDay(t *testing.T) {
	cfg := Default()
	if cfg.WeekStartDay() != time.Sunday {
		t.Error("default week start should be Sunday")
	}
	cfg.WeekStart = "monday"
	if cfg.WeekStartDay() != time.Monday {
		t.Error("monday week start should map to time.Monday")
	}
}
