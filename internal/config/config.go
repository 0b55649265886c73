// Package config loads labcheck settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a configuration value that failed validation.
var ErrInvalid = errors.New("invalid config")

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the labcheck configuration. Zero values are replaced by defaults
// after loading.
type Config struct {
	Page         string        `yaml:"page"`
	Format       string        `yaml:"format"` // text | json
	Color        *bool         `yaml:"color"`
	Placeholder  string        `yaml:"placeholder"`
	BrandWords   []string      `yaml:"brand_words"`
	DismissDelay time.Duration `yaml:"dismiss_delay"`
	LogLevel     string        `yaml:"log_level"` // debug | info | warn | error
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load reads a YAML configuration file. An empty path yields Default().
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Page == "" {
		c.Page = "lab/index.html"
	}
	if c.Format == "" {
		c.Format = FormatText
	}
	if c.Color == nil {
		on := true
		c.Color = &on
	}
	if c.Placeholder == "" {
		c.Placeholder = "****"
	}
	if len(c.BrandWords) == 0 {
		c.BrandWords = []string{"community"}
	}
	if c.DismissDelay <= 0 {
		c.DismissDelay = 5 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: format %q: want %q or %q", ErrInvalid, c.Format, FormatText, FormatJSON)
	}
	if strings.TrimSpace(c.Placeholder) == "" {
		return fmt.Errorf("%w: placeholder is blank", ErrInvalid)
	}
	for i, w := range c.BrandWords {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("%w: brand_words[%d] is blank", ErrInvalid, i)
		}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ColorEnabled reports the effective color setting.
func (c *Config) ColorEnabled() bool { return c.Color == nil || *c.Color }

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, s)
	}
	return lvl, nil
}
