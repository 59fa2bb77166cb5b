package config

import (
	"log/slog"
	"time"

	"github.com/Versifine/laneshift/internal/input"
	"github.com/Versifine/laneshift/internal/logger"
	"github.com/Versifine/laneshift/internal/loop"
	"github.com/Versifine/laneshift/internal/motion"
)

// InputOptions maps the input section. debounce_ms = 0 disables debouncing
// and dead_zone = 0 disables the dead zone.
func (c *Config) InputOptions(l *slog.Logger) input.Options {
	debounce := time.Duration(c.Input.DebounceMS) * time.Millisecond
	if debounce == 0 {
		debounce = -1
	}
	deadZone := c.Input.DeadZone
	if deadZone == 0 {
		deadZone = -1
	}
	return input.Options{
		DebounceInterval: debounce,
		SwipeThreshold:   c.Input.SwipeThreshold,
		DeadZone:         deadZone,
		LeftKeys:         append([]string(nil), c.Input.LeftKeys...),
		RightKeys:        append([]string(nil), c.Input.RightKeys...),
		Logger:           l,
	}
}

func (c *Config) MotionOptions() motion.Options {
	opts := motion.Options{
		LaneCount:          c.Motion.LaneCount,
		LaneWidth:          c.Motion.LaneWidth,
		MaxHorizontalSpeed: c.Motion.MaxHorizontalSpeed,
		VelocityBlend:      c.Motion.VelocityBlend,
	}
	if c.Motion.InitialLane != nil {
		lane := *c.Motion.InitialLane
		opts.InitialLane = &lane
	}
	if c.Motion.BoundsMin != nil && c.Motion.BoundsMax != nil {
		opts.Bounds = &motion.Bounds{Min: *c.Motion.BoundsMin, Max: *c.Motion.BoundsMax}
	}
	return opts
}

func (c *Config) LoopOptions() loop.Options {
	rate := c.Loop.TickRate
	if rate <= 0 {
		rate = 60
	}
	return loop.Options{
		TickInterval: time.Second / time.Duration(rate),
		BootDuration: time.Duration(c.Loop.BootMS) * time.Millisecond,
		ResyncInput:  c.Loop.ResyncInput,
	}
}

func (c *Config) KeyPulse() time.Duration {
	return time.Duration(c.Loop.KeyPulseMS) * time.Millisecond
}

func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		File:   c.Logging.File,
	}
}
