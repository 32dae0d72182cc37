// Package config loads the matcher settings from a TOML file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/zerr"
)

const (
	appDir     = "map-helper"
	configFile = "config.toml"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = zerr.New("invalid configuration")

// Preprocessing names the Stage A preprocessing path.
const (
	PreprocessEnhanced   = "enhanced"
	PreprocessStructural = "structural"
)

// Config holds every tunable of the identification engine.
type Config struct {
	MapsRoot string `toml:"maps_root"`
	Language string `toml:"language"`

	ThreadingEnabled bool `toml:"threading_enabled"`
	ThreadCount      int  `toml:"thread_count"`

	MinInliers           int `toml:"min_inliers"`
	EarlyStopThreshold   int `toml:"early_stop_threshold"`
	MinCacheConfidence   int `toml:"min_cache_confidence"`
	CacheDurationMinutes int `toml:"cache_duration_minutes"`
	UpdateIntervalCells  int `toml:"update_interval_cells"`

	ORBFeatures   int     `toml:"orb_features"`
	RatioTest     float64 `toml:"ratio_test"`
	Preprocessing string  `toml:"preprocessing"`

	ConfidenceLog string `toml:"confidence_log"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MapsRoot:             "./maps",
		Language:             "en",
		ThreadingEnabled:     true,
		ThreadCount:          8,
		MinInliers:           5,
		EarlyStopThreshold:   75,
		MinCacheConfidence:   60,
		CacheDurationMinutes: 15,
		UpdateIntervalCells:  3,
		ORBFeatures:          6000,
		RatioTest:            0.75,
		Preprocessing:        PreprocessEnhanced,
		ConfidenceLog:        "confidence_log.txt",
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// CacheDuration returns the session TTL.
func (c Config) CacheDuration() time.Duration {
	return time.Duration(c.CacheDurationMinutes) * time.Minute
}

// Workers returns the worker count to use, 1 when threading is disabled.
func (c Config) Workers() int {
	if !c.ThreadingEnabled || c.ThreadCount < 1 {
		return 1
	}
	return c.ThreadCount
}

// Validate checks ranges.
func (c Config) Validate() error {
	check := func(ok bool, key string, value any) error {
		if ok {
			return nil
		}
		return zerr.With(zerr.With(ErrInvalid, "key", key), "value", value)
	}
	return errors.Join(
		check(c.ThreadCount >= 1, "thread_count", c.ThreadCount),
		check(c.MinInliers >= 4 && c.MinInliers <= 100, "min_inliers", c.MinInliers),
		check(inPercent(c.EarlyStopThreshold), "early_stop_threshold", c.EarlyStopThreshold),
		check(inPercent(c.MinCacheConfidence), "min_cache_confidence", c.MinCacheConfidence),
		check(c.CacheDurationMinutes > 0, "cache_duration_minutes", c.CacheDurationMinutes),
		check(c.UpdateIntervalCells >= 1, "update_interval_cells", c.UpdateIntervalCells),
		check(c.ORBFeatures >= 8, "orb_features", c.ORBFeatures),
		check(c.RatioTest > 0 && c.RatioTest < 1, "ratio_test", c.RatioTest),
		check(c.Preprocessing == PreprocessEnhanced || c.Preprocessing == PreprocessStructural,
			"preprocessing", c.Preprocessing),
	)
}

func inPercent(v int) bool {
	return v >= 0 && v <= 100
}

// DefaultPath returns ~/.config/map-helper/config.toml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, appDir, configFile)
}

// Load reads path over the defaults. An empty path means DefaultPath.
// A missing file is not an error; the second return reports whether it existed.
func Load(path string) (Config, bool, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, false, nil
		}
		return cfg, false, zerr.With(zerr.Wrap(err, "failed to read config"), "path", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, true, zerr.With(zerr.Wrap(err, "failed to parse config"), "path", path)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, true, err
	}
	return cfg, true, nil
}

func (c *Config) normalize() {
	c.MapsRoot = strings.TrimSpace(c.MapsRoot)
	if c.MapsRoot == "" {
		c.MapsRoot = Default().MapsRoot
	}
	c.Language = strings.TrimSpace(c.Language)
	if c.Language == "" {
		c.Language = Default().Language
	}
	c.Preprocessing = strings.ToLower(strings.TrimSpace(c.Preprocessing))
	c.ConfidenceLog = strings.TrimSpace(c.ConfidenceLog)
}

// Save writes the configuration to path, creating parent directories.
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return zerr.Wrap(err, "failed to encode config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create config directory"), "path", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write config"), "path", path)
	}
	return nil
}
