package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatSimple   = "simple"
	FormatDetailed = "detailed"
	FormatJSON     = "json"

	DefaultDays = 7
)

// Config is the optional on-disk configuration. Command-line flags take
// precedence over every field.
type Config struct {
	// Days is the length of the upcoming window.
	Days int `yaml:"days"`

	// Format is one of "simple", "detailed" or "json".
	Format string `yaml:"format"`

	// Timezone is the IANA reference timezone (e.g. "Europe/Berlin").
	// Empty means the system local zone.
	Timezone string `yaml:"timezone"`

	// LogLevel is "debug", "info" or "error".
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Days:     DefaultDays,
		Format:   FormatSimple,
		Timezone: "",
		LogLevel: "error",
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Days <= 0 {
		c.Days = DefaultDays
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if !ValidFormat(c.Format) {
		c.Format = FormatSimple
	}
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.LogLevel == "" {
		c.LogLevel = "error"
	}
}

// ValidFormat reports whether f names a supported output format.
func ValidFormat(f string) bool {
	switch f {
	case FormatSimple, FormatDetailed, FormatJSON:
		return true
	}
	return false
}

// DefaultPath returns $XDG_CONFIG_HOME/calpeek/config.yaml (or the platform
// equivalent). It returns "" when no user config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "calpeek", "config.yaml")
}

// Load loads configuration from the given YAML path.
//
// A missing file (or an empty path) is not an error: defaults are returned.
// Unlike a daemon, a one-shot CLI never creates the file implicitly; see
// Save for explicit initialization.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calpeek-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
