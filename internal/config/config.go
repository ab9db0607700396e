// Package config holds the runtime settings shared by the otc commands.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/edit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/spatial"
)

// Config controls the placement grid, undo depth and project store.
type Config struct {
	// Placement grid, inclusive on both ends.
	GridMinX int `env:"OTC_GRID_MIN_X" envDefault:"0"`
	GridMinY int `env:"OTC_GRID_MIN_Y" envDefault:"0"`
	GridMaxX int `env:"OTC_GRID_MAX_X" envDefault:"39"`
	GridMaxY int `env:"OTC_GRID_MAX_Y" envDefault:"29"`

	HistoryDepth int    `env:"OTC_HISTORY_DEPTH" envDefault:"50"`  // commands kept for undo
	StorePath    string `env:"OTC_STORE_PATH" envDefault:"otc.db"` // SQLite project store
	Verbose      bool   `env:"OTC_VERBOSE"`
}

// Default returns the built-in settings, identical to an empty environment.
func Default() *Config {
	return &Config{
		GridMaxX:     39,
		GridMaxY:     29,
		HistoryDepth: edit.DefaultDepth,
		StorePath:    "otc.db",
	}
}

// FromEnv loads settings from OTC_* environment variables and validates
// them.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.GridMaxX < c.GridMinX || c.GridMaxY < c.GridMinY {
		return fmt.Errorf("config: empty grid %d,%d..%d,%d", c.GridMinX, c.GridMinY, c.GridMaxX, c.GridMaxY)
	}
	if c.HistoryDepth < 1 {
		return fmt.Errorf("config: history depth %d must be at least 1", c.HistoryDepth)
	}
	if c.StorePath == "" {
		return errors.New("config: store path is empty")
	}
	return nil
}

// Bounds returns the placement grid.
func (c *Config) Bounds() spatial.Bounds {
	return spatial.Bounds{
		Min: circuit.Cell{X: c.GridMinX, Y: c.GridMinY},
		Max: circuit.Cell{X: c.GridMaxX, Y: c.GridMaxY},
	}
}
