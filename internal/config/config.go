// Package config loads process configuration from the environment. Command-line
// flags in cmd/* take precedence over these values.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr        string `env:"POLYDROS_ADDR" envDefault:":8080"`
	CatalogPath string `env:"POLYDROS_CATALOG" envDefault:"./configs/cards.json"`
	TuningPath  string `env:"POLYDROS_TUNING" envDefault:"./configs/tuning.yaml"`
	DataDir     string `env:"POLYDROS_DATA_DIR" envDefault:"./data"`
	IndexPath   string `env:"POLYDROS_INDEX_DB" envDefault:":memory:"`

	// IndexBackend is sqlite, or none/off/disabled to run without card search.
	IndexBackend string `env:"POLYDROS_INDEX_BACKEND" envDefault:"sqlite"`

	// Run request bounds, enforced by the HTTP and MCP layers only.
	MaxTicks  int `env:"POLYDROS_MAX_TICKS" envDefault:"1000"`
	MaxAgents int `env:"POLYDROS_MAX_AGENTS" envDefault:"200"`

	// KeepRuns is the number of completed runs held in memory.
	KeepRuns int `env:"POLYDROS_KEEP_RUNS" envDefault:"16"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config and rejects unusable bounds.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.MaxTicks < 0 || cfg.MaxAgents < 0 {
		return cfg, fmt.Errorf("parse env: negative run bounds")
	}
	return cfg, nil
}
