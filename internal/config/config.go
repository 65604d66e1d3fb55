// Package config loads the YAML configuration of the countdown host.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/comalice/countdown/internal/primitives"
)

type Config struct {
	Timer TimerConfig `yaml:"timer"`
	Log   LogConfig   `yaml:"log"`
	UI    UIConfig    `yaml:"ui"`
}

type TimerConfig struct {
	Interval time.Duration `yaml:"interval"`
	// Duration is applied as if typed by the user on launch; empty leaves the timer unset.
	Duration  string `yaml:"duration,omitempty"`
	QueueSize int    `yaml:"queue_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // terminal or json
	File   string `yaml:"file,omitempty"`
}

type UIConfig struct {
	Title     string `yaml:"title"`
	AltScreen bool   `yaml:"alt_screen"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Timer: TimerConfig{
			Interval:  time.Second,
			QueueSize: 64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "terminal",
		},
		UI: UIConfig{
			Title: "Countdown Timer",
		},
	}
}

// DefaultPath returns config.yaml under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "user config dir")
	}
	return filepath.Join(dir, "countdown", "config.yaml"), nil
}

// Load reads path over the defaults. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, errors.Wrapf(err, "failed to read config, %q", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config, %q", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config, %q", path)
	}

	return cfg, nil
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	return errors.Wrap(os.WriteFile(path, data, 0o600), "write config")
}

func (c *Config) Validate() error {
	if c.Timer.Interval <= 0 {
		return errors.Errorf("timer.interval must be positive, got %v", c.Timer.Interval)
	}
	if c.Timer.QueueSize < 1 {
		return errors.Errorf("timer.queue_size must be at least 1, got %d", c.Timer.QueueSize)
	}
	if c.Timer.Duration != "" {
		if _, ok := primitives.ParseDuration(c.Timer.Duration); !ok {
			return errors.Errorf("timer.duration %q is not a valid number of seconds", c.Timer.Duration)
		}
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return errors.Wrapf(err, "log.level %q", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "terminal", "json":
	default:
		return errors.Errorf("log.format must be terminal or json, got %q", c.Log.Format)
	}

	return nil
}
