// Package config loads driftwatch's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile  = "config.yaml"
	DefaultStoragePath = ".driftwatch/driftwatch.db"
	DefaultIterations  = 5
	DefaultInterval    = time.Minute
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Watch   WatchConfig   `yaml:"watch"`
	Storage StorageConfig `yaml:"storage"`
	Tagged  TaggedConfig  `yaml:"tagged"`
}

type SourceConfig struct {
	JSON JSONConfig `yaml:"json"`
	RSS  RSSConfig  `yaml:"rss"`
}

type JSONConfig struct {
	URL string `yaml:"url"`
}

type RSSConfig struct {
	Feeds []string `yaml:"feeds"`
}

// WatchConfig paces the sampling loop: how many snapshots to take and how
// long to wait between them.
type WatchConfig struct {
	Iterations int      `yaml:"iterations"`
	Interval   Duration `yaml:"interval"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

// TaggedConfig selects which items count as tagged in per-iteration stats:
// items whose field holds one of the listed values (or, for a sequence
// field, contains one of them).
type TaggedConfig struct {
	Field  string   `yaml:"field"`
	Values []string `yaml:"values"`
}

// Load reads config.yaml from dir, applies defaults, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Storage.Path = os.ExpandEnv(cfg.Storage.Path)
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Watch.Iterations == 0 {
		cfg.Watch.Iterations = DefaultIterations
	}
	if cfg.Watch.Interval.Duration == 0 {
		cfg.Watch.Interval.Duration = DefaultInterval
	}
}

func validate(cfg *Config) error {
	hasJSON := strings.TrimSpace(cfg.Source.JSON.URL) != ""
	hasRSS := len(cfg.Source.RSS.Feeds) > 0
	if !hasJSON && !hasRSS {
		return errors.New("source: either a json url or rss feeds must be configured")
	}
	if hasJSON && hasRSS {
		return errors.New("source: configure either json or rss, not both")
	}

	if cfg.Watch.Iterations < 1 {
		return errors.New("watch.iterations: must be at least 1")
	}
	if cfg.Watch.Interval.Duration < 0 {
		return errors.New("watch.interval: must not be negative")
	}

	if len(cfg.Tagged.Values) > 0 && strings.TrimSpace(cfg.Tagged.Field) == "" {
		return errors.New("tagged.field: required when tagged.values is set")
	}

	return nil
}
