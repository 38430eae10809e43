// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Player     PlayerConfig     `yaml:"player"`
	Storage    StorageConfig    `yaml:"storage"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// PlayerConfig represents playback control configuration.
type PlayerConfig struct {
	FallbackPlaylistID    string `yaml:"fallback_playlist_id" default:"PLAgb-eU_m17juOnwmvXoiQjwZi4KehKZs" validate:"required"`
	SaveIntervalMs        int    `yaml:"save_interval_ms" default:"5000" validate:"gte=1000,lte=60000"`
	SwitchTimeoutMs       int    `yaml:"switch_timeout_ms" default:"15000" validate:"gte=1000,lte=120000"`
	AutoPlayDelayMs       int    `yaml:"autoplay_delay_ms" default:"500" validate:"gte=0,lte=10000"`
	AutoPlayOnCue         *bool  `yaml:"autoplay_on_cue" default:"true"`
	DefaultPlaylistLength int    `yaml:"default_playlist_length" default:"150" validate:"gte=0"`
}

// StorageConfig represents the persistent store configuration.
type StorageConfig struct {
	Path   string `yaml:"path" default:"sleepbox.db" validate:"required"`
	Origin string `yaml:"origin" default:"local" validate:"required"`
}

// SimulationConfig represents the built-in simulated player.
type SimulationConfig struct {
	PlaylistLength  int `yaml:"playlist_length" default:"20" validate:"gte=1"`
	ItemDurationSec int `yaml:"item_duration_sec" default:"1800" validate:"gte=1"`
	LoadDelayMs     int `yaml:"load_delay_ms" default:"300" validate:"gte=0,lte=10000"`
}

// Default returns the configuration used when no file is present.
func Default() (*Config, error) {
	var cfg Config
	cfg.overrideFromEnv()
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SLEEPBOX_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SLEEPBOX_ORIGIN"); v != "" {
		c.Storage.Origin = v
	}
	if v := os.Getenv("SLEEPBOX_FALLBACK_PLAYLIST"); v != "" {
		c.Player.FallbackPlaylistID = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// SaveInterval returns the periodic save interval.
func (p *PlayerConfig) SaveInterval() time.Duration {
	return time.Duration(p.SaveIntervalMs) * time.Millisecond
}

// SwitchTimeout returns the playlist switch safety deadline.
func (p *PlayerConfig) SwitchTimeout() time.Duration {
	return time.Duration(p.SwitchTimeoutMs) * time.Millisecond
}

// AutoPlayDelay returns the delay between cueing and auto-playing a fresh playlist.
func (p *PlayerConfig) AutoPlayDelay() time.Duration {
	return time.Duration(p.AutoPlayDelayMs) * time.Millisecond
}

// AutoPlay reports whether a cued playlist should start playing after a switch.
func (p *PlayerConfig) AutoPlay() bool {
	return p.AutoPlayOnCue == nil || *p.AutoPlayOnCue
}

// ItemDuration returns the length of each simulated item.
func (s *SimulationConfig) ItemDuration() time.Duration {
	return time.Duration(s.ItemDurationSec) * time.Second
}

// LoadDelay returns how long the simulated player takes to load.
func (s *SimulationConfig) LoadDelay() time.Duration {
	return time.Duration(s.LoadDelayMs) * time.Millisecond
}
