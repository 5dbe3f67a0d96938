package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "yay", cfg.General.AURHelper)
	assert.False(t, cfg.General.RejectBusy)
	assert.Equal(t, 5*time.Second, cfg.TerminateGrace())
	assert.Equal(t, 15*time.Minute, cfg.Staleness())
	assert.True(t, cfg.Cache.Persist)
	assert.True(t, cfg.Output.Color)
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.General.AURHelper = "paru"
	cfg.General.RejectBusy = true
	cfg.General.TerminateGraceSeconds = 10
	cfg.Cache.StalenessMinutes = 60
	cfg.Output.Unicode = false
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, 10*time.Second, loaded.TerminateGrace())
	assert.Equal(t, time.Hour, loaded.Staleness())
}

func TestLoadFromPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general]\naur_helper = \"paru\"\n"), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "paru", cfg.General.AURHelper)
	assert.Equal(t, 15, cfg.Cache.StalenessMinutes, "unset fields keep defaults")
	assert.True(t, cfg.Output.Color)
}

func TestDurationFloors(t *testing.T) {
	cfg := Default()
	cfg.General.TerminateGraceSeconds = 0
	cfg.Cache.StalenessMinutes = -3

	assert.Equal(t, 5*time.Second, cfg.TerminateGrace())
	assert.Equal(t, 15*time.Minute, cfg.Staleness())
}

func TestPathsHonorXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	assert.Equal(t, "/tmp/xdg-config/pkger/config.toml", ConfigPath())
	assert.Equal(t, "/tmp/xdg-data/pkger/metadata.db", CachePath())
	assert.Equal(t, "/tmp/xdg-data/pkger/history.db", HistoryPath())
}
