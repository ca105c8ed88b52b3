// Package config loads the server configuration from a YAML file.
//
// Everything has a usable default, so the server starts with no config
// file at all; a partial file only needs to name what it changes.
// Environment variables override the file for the two values that differ
// per deployment most often (listen address, JWT secret), which keeps
// secrets out of the file when preferred.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	// Listen is the HTTP listen address, e.g. ":8080".
	Listen string `yaml:"listen"`

	// DBPath is the SQLite database file holding the event tree.
	DBPath string `yaml:"db_path"`

	// JWTSecret signs device tokens. Must be at least 16 characters.
	JWTSecret string `yaml:"jwt_secret"`

	// AdminDeviceID is the one allow-listed device id permitted to delete
	// any owner's event. Empty disables the admin entirely.
	//
	// This is a static allow-list of size one, not a role system — it is
	// configuration precisely so it never has to live as a string literal
	// inside business logic.
	AdminDeviceID string `yaml:"admin_device_id"`

	// WeekStart controls which weekday is treated as the first column of
	// the calendar grid: "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start"`
}

// Default returns the in-memory default configuration.
func Default() *Config {
	return &Config{
		Listen:    ":8080",
		DBPath:    "data/whenbabe.db",
		WeekStart: "sunday",
	}
}

// Load reads the config file at path, fills defaults, and applies
// environment overrides. A missing file is not an error — defaults plus
// environment are a complete configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// fine, run on defaults
	case err != nil:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if v := os.Getenv("WHENBABE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("WHENBABE_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}

	cfg.Normalize()
	return cfg, nil
}

// Normalize fills in missing/zero values so partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "data/whenbabe.db"
	}
	switch c.WeekStart {
	case "sunday", "monday":
		// ok
	default:
		// Unknown value; fall back to sunday to avoid surprising layouts.
		c.WeekStart = "sunday"
	}
}

// WeekStartDay converts the configured week start to a time.Weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}
