// Package config handles configuration loading from TOML files and
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/xonecas/classmap/internal/reduce"
)

// Config is the root configuration structure.
type Config struct {
	// Filter is the default filter mode: "all" or "public".
	Filter string `toml:"filter"`
	// MaxFileSize caps how large a PHP file the walker will hand to the
	// parser, in bytes. Zero means the built-in 1 MiB default.
	MaxFileSize int64 `toml:"max_file_size"`
	// Workers bounds batch parallelism. Zero means min(NumCPU, 8).
	Workers int          `toml:"workers"`
	Cache   CacheConfig  `toml:"cache"`
	Server  ServerConfig `toml:"server"`
	Log     LogConfig    `toml:"log"`
}

// CacheConfig holds summary cache settings.
type CacheConfig struct {
	// Path of the sqlite database. Empty disables caching.
	Path     string `toml:"path"`
	TTLHours int    `toml:"ttl_hours"`
}

// TTLOrDefault returns the configured TTL or 24 hours if unset.
func (c CacheConfig) TTLOrDefault() int {
	if c.TTLHours <= 0 {
		return 24
	}
	return c.TTLHours
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// ListenOrDefault returns the configured listen address or ":8640".
func (s ServerConfig) ListenOrDefault() string {
	if s.Listen == "" {
		return ":8640"
	}
	return s.Listen
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string `toml:"level"`
}

// LevelOrDefault returns the configured level or "info".
func (l LogConfig) LevelOrDefault() string {
	if l.Level == "" {
		return "info"
	}
	return l.Level
}

// Load reads configuration from a TOML file and applies environment
// variable overrides. An empty path yields defaults; a named file must
// exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := reduce.ParseFilterMode(c.Filter); err != nil {
		errs = append(errs, fmt.Errorf("filter: %w", err))
	}
	if c.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("max_file_size=%d must not be negative", c.MaxFileSize))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers=%d must not be negative", c.Workers))
	}
	if c.Cache.TTLHours < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_hours=%d must not be negative", c.Cache.TTLHours))
	}
	switch c.Log.LevelOrDefault() {
	case "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level=%q is not a known level", c.Log.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"CLASSMAP_FILTER", func(v string) {
			if v != "" {
				cfg.Filter = v
			}
		}},
		{"CLASSMAP_LISTEN", func(v string) {
			if v != "" {
				cfg.Server.Listen = v
			}
		}},
		{"CLASSMAP_CACHE_PATH", func(v string) {
			if v != "" {
				cfg.Cache.Path = v
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
}

// DataDir returns the path to the classmap data directory
// (~/.config/classmap).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "classmap"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}
