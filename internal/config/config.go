/*
Package config
File: config.go
Description:
    Server configuration. Values come from three layers, later ones winning:
    1. Built-in defaults.
    2. An optional YAML file (server.yaml).
    3. CHAOS_* environment variables.

    The game balance itself is not configured here; it lives in the catalog.
*/

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string `yaml:"addr"`
	AllowedOrigin string `yaml:"allowed_origin"` // CORS and websocket origin; "*" allows any
	LogLevel      string `yaml:"log_level"`

	DBPath      string `yaml:"db_path"`
	SaveSlot    string `yaml:"save_slot"`
	CatalogPath string `yaml:"catalog_path"` // Empty means the embedded catalog

	TickInterval     time.Duration `yaml:"tick_interval"`
	MarketInterval   time.Duration `yaml:"market_interval"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`

	ClickRate  float64 `yaml:"click_rate"`  // Sustained manual clicks per second per client
	ClickBurst int     `yaml:"click_burst"` // Clicks allowed in a burst
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		Addr:             ":8081",
		AllowedOrigin:    "*",
		LogLevel:         "info",
		DBPath:           "data/chaos.db",
		SaveSlot:         "default",
		TickInterval:     100 * time.Millisecond,
		MarketInterval:   5 * time.Second,
		AutosaveInterval: 30 * time.Second,
		ClickRate:        20,
		ClickBurst:       40,
	}
}

// Load reads a YAML config file on top of the defaults.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.TickInterval <= 0 || c.MarketInterval <= 0 || c.AutosaveInterval <= 0 {
		return errors.New("config: intervals must be positive")
	}
	if c.ClickRate <= 0 || c.ClickBurst < 1 {
		return errors.New("config: click rate and burst must be positive")
	}
	if c.SaveSlot == "" {
		return errors.New("config: save_slot is required")
	}
	return nil
}
