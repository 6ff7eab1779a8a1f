package kinetix

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the world tunables. Zero values in a loaded file fall back to
// the defaults, so partial configs are fine.
type Config struct {
	// Gravity in world units per second squared.
	Gravity [3]float32 `yaml:"gravity"`

	// Rest-state debounce: a body whose linear speed stays below
	// RestSpeedThreshold and angular speed below RestAngularThreshold for
	// RestStepCount consecutive steps is put to rest.
	RestSpeedThreshold   float32 `yaml:"rest_speed_threshold"`
	RestAngularThreshold float32 `yaml:"rest_angular_threshold"`
	RestStepCount        int     `yaml:"rest_step_count"`

	// MinDynamicMass is the clamp floor applied to dynamic bodies at attach
	// time so integration never divides by zero.
	MinDynamicMass float32 `yaml:"min_dynamic_mass"`

	// MaxStepDt caps a single step; larger deltas are rejected as clock
	// glitches and the step becomes a no-op.
	MaxStepDt float32 `yaml:"max_step_dt"`

	// CellSize of the broad-phase hash grid.
	CellSize float32 `yaml:"cell_size"`

	// PenetrationSlop is the overlap tolerated before positional correction.
	PenetrationSlop float32 `yaml:"penetration_slop"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:              [3]float32{0, -9.81, 0},
		RestSpeedThreshold:   0.05,
		RestAngularThreshold: 0.05,
		RestStepCount:        20,
		MinDynamicMass:       0.001,
		MaxStepDt:            1.0,
		CellSize:             2.0,
		PenetrationSlop:      0.005,
	}
}

// LoadConfig reads a yaml file and merges it over the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.RestSpeedThreshold <= 0 {
		c.RestSpeedThreshold = def.RestSpeedThreshold
	}
	if c.RestAngularThreshold <= 0 {
		c.RestAngularThreshold = def.RestAngularThreshold
	}
	if c.RestStepCount <= 0 {
		c.RestStepCount = def.RestStepCount
	}
	if c.MinDynamicMass <= 0 {
		c.MinDynamicMass = def.MinDynamicMass
	}
	if c.MaxStepDt <= 0 {
		c.MaxStepDt = def.MaxStepDt
	}
	if c.CellSize <= 0 {
		c.CellSize = def.CellSize
	}
	if c.PenetrationSlop <= 0 {
		c.PenetrationSlop = def.PenetrationSlop
	}
}
