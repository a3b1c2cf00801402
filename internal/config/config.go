// Package config loads runtime settings from a YAML file with sane defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level runtime configuration.
type Config struct {
	Seed         int64         `yaml:"seed"` // 0 selects a non-reproducible run
	TickInterval time.Duration `yaml:"tick_interval"`
	DBPath       string        `yaml:"db_path"`
	RosterPath   string        `yaml:"roster_path"`
	JournalPath  string        `yaml:"journal_path"` // empty disables the journal
	APIPort      int           `yaml:"api_port"`

	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

// EnrichmentConfig controls the narrative enrichment client. The API key is
// read from the ANTHROPIC_API_KEY environment variable, never from the file.
type EnrichmentConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Seed:         42,
		TickInterval: time.Second,
		DBPath:       "data/sandbox.db",
		RosterPath:   "data/roster.yaml",
		APIPort:      8080,
		Enrichment: EnrichmentConfig{
			Timeout: 15 * time.Second,
		},
	}
}

// Load reads the config at path, layered over the defaults. A missing file is
// not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.TickInterval <= 0 {
		return cfg, fmt.Errorf("tick_interval must be positive")
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("api_port out of range: %d", cfg.APIPort)
	}
	if cfg.Enrichment.Timeout <= 0 {
		cfg.Enrichment.Timeout = Default().Enrichment.Timeout
	}
	return cfg, nil
}
