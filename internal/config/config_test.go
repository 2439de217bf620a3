package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
save_slot: hardcore
tick_interval: 250ms
autosave_interval: 1m
click_burst: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "hardcore", cfg.SaveSlot)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, time.Minute, cfg.AutosaveInterval)
	assert.Equal(t, 5, cfg.ClickBurst)
	assert.Equal(t, 5*time.Second, cfg.MarketInterval, "untouched fields keep their default")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_interval: -1s\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("addr: [\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CHAOS_ADDR", ":7000")
	t.Setenv("CHAOS_DB_PATH", "/tmp/x.db")
	t.Setenv("CHAOS_TICK_INTERVAL", "50ms")
	t.Setenv("CHAOS_CLICK_RATE", "7.5")
	t.Setenv("CHAOS_CLICK_BURST", "not-a-number")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 7.5, cfg.ClickRate)
	assert.Equal(t, Default().ClickBurst, cfg.ClickBurst)
}
