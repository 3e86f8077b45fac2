// Package config loads the moodboard YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moodworks/moodboard/pkg/moodboard/internalerr"
	"github.com/moodworks/moodboard/pkg/moodboard/zreader"
)

// Reference defaults: two million unique rows per source, 64 MiB
// decompression chunks.
const (
	DefaultRowLimit = 2_000_000
	DefaultPort     = "8080"
)

// Source describes one dataset dump in the configuration file.
type Source struct {
	Name  string `yaml:"name"`
	Path  string `yaml:"path"`
	Field string `yaml:"field"`
}

// Models holds the classifier artifact paths.
type Models struct {
	Toxicity  string `yaml:"toxicity"`
	Subject   string `yaml:"subject"`
	Sentiment string `yaml:"sentiment"`
}

// Config is the full service configuration.
type Config struct {
	Sources   []Source `yaml:"sources"`
	RowLimit  int      `yaml:"row_limit"`
	ChunkSize int      `yaml:"chunk_size"`
	CachePath string   `yaml:"cache_path"`
	Models    Models   `yaml:"models"`
	Port      string   `yaml:"port"`
}

// Load reads and validates a configuration file, filling defaults for
// omitted tunables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RowLimit == 0 {
		c.RowLimit = DefaultRowLimit
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = zreader.DefaultChunkSize
	}
	if c.Port == "" {
		c.Port = DefaultPort
	}
}

// Validate checks for the mistakes a config file can realistically
// contain; path existence is checked at startup, not here.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: no sources defined: %w", internalerr.ErrInvalidConfig)
	}
	seen := make(map[string]struct{})
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("config: source %d has no name: %w", i, internalerr.ErrInvalidConfig)
		}
		if src.Path == "" {
			return fmt.Errorf("config: source %q has no path: %w", src.Name, internalerr.ErrInvalidConfig)
		}
		if src.Field == "" {
			return fmt.Errorf("config: source %q has no field: %w", src.Name, internalerr.ErrInvalidConfig)
		}
		if _, dup := seen[src.Name]; dup {
			return fmt.Errorf("config: duplicate source name %q: %w", src.Name, internalerr.ErrInvalidConfig)
		}
		seen[src.Name] = struct{}{}
	}
	if c.RowLimit < 0 {
		return fmt.Errorf("config: negative row_limit: %w", internalerr.ErrInvalidConfig)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("config: negative chunk_size: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}
