/*
Package config
File: env.go
Description: Environment overrides (CHAOS_*), applied on top of the YAML file.
*/

package config

import (
	"os"
	"strconv"
	"time"
)

// ApplyEnv overrides fields from CHAOS_* environment variables.
// Unset or unparsable variables leave the field alone.
func (c *Config) ApplyEnv() {
	if val := os.Getenv("CHAOS_ADDR"); val != "" {
		c.Addr = val
	}
	if val := os.Getenv("CHAOS_ALLOWED_ORIGIN"); val != "" {
		c.AllowedOrigin = val
	}
	if val := os.Getenv("CHAOS_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("CHAOS_DB_PATH"); val != "" {
		c.DBPath = val
	}
	if val := os.Getenv("CHAOS_SAVE_SLOT"); val != "" {
		c.SaveSlot = val
	}
	if val := os.Getenv("CHAOS_CATALOG_PATH"); val != "" {
		c.CatalogPath = val
	}
	if val := getEnvDuration("CHAOS_TICK_INTERVAL"); val > 0 {
		c.TickInterval = val
	}
	if val := getEnvDuration("CHAOS_MARKET_INTERVAL"); val > 0 {
		c.MarketInterval = val
	}
	if val := getEnvDuration("CHAOS_AUTOSAVE_INTERVAL"); val > 0 {
		c.AutosaveInterval = val
	}
	if val := getEnvFloat("CHAOS_CLICK_RATE"); val > 0 {
		c.ClickRate = val
	}
	if val := getEnvInt("CHAOS_CLICK_BURST"); val > 0 {
		c.ClickBurst = val
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func getEnvFloat(key string) float64 {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return num
}

func getEnvDuration(key string) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0
	}
	return d
}
