package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Input   InputConfig   `yaml:"input" toml:"input"`
	Motion  MotionConfig  `yaml:"motion" toml:"motion"`
	Loop    LoopConfig    `yaml:"loop" toml:"loop"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	File   string `yaml:"file" toml:"file"`
	Format string `yaml:"format" toml:"format"`
}

type InputConfig struct {
	DebounceMS     int      `yaml:"debounce_ms" toml:"debounce_ms"`
	SwipeThreshold float64  `yaml:"swipe_threshold" toml:"swipe_threshold"`
	DeadZone       float64  `yaml:"dead_zone" toml:"dead_zone"`
	LeftKeys       []string `yaml:"left_keys" toml:"left_keys"`
	RightKeys      []string `yaml:"right_keys" toml:"right_keys"`
}

type MotionConfig struct {
	LaneCount          int      `yaml:"lane_count" toml:"lane_count"`
	LaneWidth          float64  `yaml:"lane_width" toml:"lane_width"`
	MaxHorizontalSpeed float64  `yaml:"max_horizontal_speed" toml:"max_horizontal_speed"`
	VelocityBlend      float64  `yaml:"velocity_blend" toml:"velocity_blend"`
	InitialLane        *int     `yaml:"initial_lane" toml:"initial_lane"`
	BoundsMin          *float64 `yaml:"bounds_min" toml:"bounds_min"`
	BoundsMax          *float64 `yaml:"bounds_max" toml:"bounds_max"`
}

type LoopConfig struct {
	TickRate    int  `yaml:"tick_rate" toml:"tick_rate"`
	BootMS      int  `yaml:"boot_ms" toml:"boot_ms"`
	KeyPulseMS  int  `yaml:"key_pulse_ms" toml:"key_pulse_ms"`
	ResyncInput bool `yaml:"resync_input" toml:"resync_input"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Input: InputConfig{
			DebounceMS:     16,
			SwipeThreshold: 30,
			DeadZone:       10,
			LeftKeys:       []string{"a", "arrowleft"},
			RightKeys:      []string{"d", "arrowright"},
		},
		Motion: MotionConfig{
			LaneCount:          3,
			LaneWidth:          3,
			MaxHorizontalSpeed: 12,
			VelocityBlend:      10,
		},
		Loop: LoopConfig{
			TickRate:   60,
			BootMS:     1000,
			KeyPulseMS: 180,
		},
	}
}

// Load reads path over DefaultConfig. The decoder is picked by extension:
// .toml uses TOML, .yaml/.yml (and anything else) uses YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Input.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("input.debounce_ms must be >= 0, got %d", c.Input.DebounceMS))
	}
	if c.Input.SwipeThreshold <= 0 {
		errs = append(errs, fmt.Errorf("input.swipe_threshold must be > 0, got %g", c.Input.SwipeThreshold))
	}
	if c.Input.DeadZone < 0 || c.Input.DeadZone >= c.Input.SwipeThreshold {
		errs = append(errs, fmt.Errorf("input.dead_zone must be in [0, swipe_threshold), got %g", c.Input.DeadZone))
	}
	if len(c.Input.LeftKeys) == 0 || len(c.Input.RightKeys) == 0 {
		errs = append(errs, errors.New("input.left_keys and input.right_keys must not be empty"))
	}
	if c.Motion.LaneCount < 1 {
		errs = append(errs, fmt.Errorf("motion.lane_count must be >= 1, got %d", c.Motion.LaneCount))
	}
	if c.Motion.LaneWidth <= 0 {
		errs = append(errs, fmt.Errorf("motion.lane_width must be > 0, got %g", c.Motion.LaneWidth))
	}
	if c.Motion.MaxHorizontalSpeed <= 0 {
		errs = append(errs, fmt.Errorf("motion.max_horizontal_speed must be > 0, got %g", c.Motion.MaxHorizontalSpeed))
	}
	if c.Motion.VelocityBlend <= 0 {
		errs = append(errs, fmt.Errorf("motion.velocity_blend must be > 0, got %g", c.Motion.VelocityBlend))
	}
	if (c.Motion.BoundsMin == nil) != (c.Motion.BoundsMax == nil) {
		errs = append(errs, errors.New("motion.bounds_min and motion.bounds_max must be set together"))
	} else if c.Motion.BoundsMin != nil && *c.Motion.BoundsMin > *c.Motion.BoundsMax {
		errs = append(errs, fmt.Errorf("motion.bounds_min %g > bounds_max %g", *c.Motion.BoundsMin, *c.Motion.BoundsMax))
	}
	if c.Loop.TickRate < 1 || c.Loop.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("loop.tick_rate must be in [1, 1000], got %d", c.Loop.TickRate))
	}
	if c.Loop.BootMS < 0 {
		errs = append(errs, fmt.Errorf("loop.boot_ms must be >= 0, got %d", c.Loop.BootMS))
	}
	if c.Loop.KeyPulseMS < 0 {
		errs = append(errs, fmt.Errorf("loop.key_pulse_ms must be >= 0, got %d", c.Loop.KeyPulseMS))
	}
	return errors.Join(errs...)
}
