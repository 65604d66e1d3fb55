package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, time.Second, cfg.Timer.Interval)
	assert.Equal(t, 64, cfg.Timer.QueueSize)
	assert.Empty(t, cfg.Timer.Duration)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "terminal", cfg.Log.Format)
	assert.Equal(t, "Countdown Timer", cfg.UI.Title)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timer:
  interval: 250ms
  duration: "90"
log:
  format: json
ui:
  alt_screen: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Timer.Interval)
	assert.Equal(t, "90", cfg.Timer.Duration)
	assert.Equal(t, 64, cfg.Timer.QueueSize)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.UI.AltScreen)
	assert.Equal(t, "Countdown Timer", cfg.UI.Title)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "timer: [",
		"zero interval":  "timer:\n  interval: 0s\n",
		"bad duration":   "timer:\n  duration: \"-5\"\n",
		"bad queue size": "timer:\n  queue_size: 0\n",
		"bad format":     "log:\n  format: xml\n",
		"bad level":      "log:\n  level: loud\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Timer.Duration = "30"
	cfg.Timer.Interval = 500 * time.Millisecond
	cfg.Log.File = "countdown.log"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "interval: 500ms")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
