// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BITPERFECT_"

// Config represents the application configuration.
type Config struct {
	Playback PlaybackConfig `yaml:"playback"`
	Device   DeviceConfig   `yaml:"device"`
	Log      LogConfig      `yaml:"log"`
}

// PlaybackConfig represents playback engine configuration.
type PlaybackConfig struct {
	ProgressIntervalMs int     `yaml:"progress_interval_ms" default:"100" validate:"gte=10,lte=1000"`
	PeriodicEveryTicks int     `yaml:"periodic_every_ticks" default:"20" validate:"gte=1,lte=1000"`
	FinishEpsilonMs    int     `yaml:"finish_epsilon_ms" default:"50" validate:"gte=0,lte=1000"`
	SettleDelayMs      int     `yaml:"settle_delay_ms" default:"500" validate:"gte=0,lte=10000"`
	SkipSeconds        int     `yaml:"skip_seconds" default:"10" validate:"gte=1,lte=600"`
	Volume             float64 `yaml:"volume" default:"1.0" validate:"gte=0,lte=1"`
	BufferMs           int     `yaml:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
}

// DeviceConfig selects the sample rate backend. Settings are decoded by the backend.
type DeviceConfig struct {
	Backend  string         `yaml:"backend" default:"pipewire" validate:"oneof=pipewire memory"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// LogConfig represents logger configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stderr"`
	File   string `yaml:"file"`
}

// Load loads configuration from a YAML file. An empty path yields the defaults.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	// Override with environment variables
	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with BITPERFECT_* environment variables.
func (c *Config) overrideFromEnv() error {
	if v := os.Getenv(EnvPrefix + "DEVICE_BACKEND"); v != "" {
		c.Device.Backend = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_OUTPUT"); v != "" {
		c.Log.Output = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Log.File = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SETTLE_DELAY_MS", &c.Playback.SettleDelayMs},
		{"SKIP_SECONDS", &c.Playback.SkipSeconds},
		{"BUFFER_MS", &c.Playback.BufferMs},
	}
	for _, o := range ints {
		v := os.Getenv(EnvPrefix + o.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s%s", EnvPrefix, o.key)
		}
		*o.dst = n
	}

	if v := os.Getenv(EnvPrefix + "VOLUME"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid %sVOLUME", EnvPrefix)
		}
		c.Playback.Volume = f
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// ProgressInterval returns the tracker poll cadence.
func (p PlaybackConfig) ProgressInterval() time.Duration {
	return time.Duration(p.ProgressIntervalMs) * time.Millisecond
}

// FinishEpsilon returns the end-of-track window.
func (p PlaybackConfig) FinishEpsilon() time.Duration {
	return time.Duration(p.FinishEpsilonMs) * time.Millisecond
}

// SettleDelay returns the wait after a device rate switch.
func (p PlaybackConfig) SettleDelay() time.Duration {
	return time.Duration(p.SettleDelayMs) * time.Millisecond
}

// SkipInterval returns the skip step.
func (p PlaybackConfig) SkipInterval() time.Duration {
	return time.Duration(p.SkipSeconds) * time.Second
}

// BufferSize returns the speaker buffer length.
func (p PlaybackConfig) BufferSize() time.Duration {
	return time.Duration(p.BufferMs) * time.Millisecond
}
