// Package scenario replays scripted input against the control core on a
// manual clock and records what it did.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Versifine/laneshift/internal/input"
)

const (
	defaultTickMS       = 16
	defaultSurfaceWidth = 800
	// tailMS is how long a script without duration_ms runs past its last step.
	tailMS = 500
)

type Contact struct {
	ID string  `yaml:"id"`
	X  float64 `yaml:"x"`
	Y  float64 `yaml:"y"`
}

// Step is one raw event at AtMS. Exactly one event field must be set.
type Step struct {
	AtMS       int       `yaml:"at_ms"`
	KeyDown    string    `yaml:"key_down,omitempty"`
	KeyUp      string    `yaml:"key_up,omitempty"`
	TouchStart []Contact `yaml:"touch_start,omitempty"`
	TouchMove  []Contact `yaml:"touch_move,omitempty"`
	TouchEnd   []Contact `yaml:"touch_end,omitempty"`
}

type Script struct {
	Name         string  `yaml:"name"`
	SurfaceWidth float64 `yaml:"surface_width"`
	TickMS       int     `yaml:"tick_ms"`
	DurationMS   int     `yaml:"duration_ms"`
	Steps        []Step  `yaml:"steps"`
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a script, filling defaults and ordering steps
// by time (ties keep file order).
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if s.TickMS == 0 {
		s.TickMS = defaultTickMS
	}
	if s.SurfaceWidth == 0 {
		s.SurfaceWidth = defaultSurfaceWidth
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].AtMS < s.Steps[j].AtMS })
	if s.DurationMS == 0 {
		last := 0
		if n := len(s.Steps); n > 0 {
			last = s.Steps[n-1].AtMS
		}
		s.DurationMS = last + tailMS
	}
	return &s, nil
}

func (s *Script) validate() error {
	var errs []error
	if s.TickMS < 0 {
		errs = append(errs, fmt.Errorf("tick_ms must be > 0, got %d", s.TickMS))
	}
	if s.DurationMS < 0 {
		errs = append(errs, fmt.Errorf("duration_ms must be >= 0, got %d", s.DurationMS))
	}
	if s.SurfaceWidth < 0 {
		errs = append(errs, fmt.Errorf("surface_width must be >= 0, got %g", s.SurfaceWidth))
	}
	for i, st := range s.Steps {
		if st.AtMS < 0 {
			errs = append(errs, fmt.Errorf("steps[%d]: at_ms must be >= 0", i))
		}
		if n := st.events(); n != 1 {
			errs = append(errs, fmt.Errorf("steps[%d]: want exactly one event, got %d", i, n))
		}
	}
	return errors.Join(errs...)
}

func (st Step) events() int {
	n := 0
	for _, set := range []bool{
		st.KeyDown != "",
		st.KeyUp != "",
		len(st.TouchStart) > 0,
		len(st.TouchMove) > 0,
		len(st.TouchEnd) > 0,
	} {
		if set {
			n++
		}
	}
	return n
}

func contacts(cs []Contact) []input.Contact {
	out := make([]input.Contact, len(cs))
	for i, c := range cs {
		out[i] = input.Contact{ID: c.ID, X: c.X, Y: c.Y}
	}
	return out
}

func (st Step) apply(d *input.Dispatcher) {
	switch {
	case st.KeyDown != "":
		d.KeyDown(st.KeyDown)
	case st.KeyUp != "":
		d.KeyUp(st.KeyUp)
	case len(st.TouchStart) > 0:
		d.TouchStart(contacts(st.TouchStart)...)
	case len(st.TouchMove) > 0:
		d.TouchMove(contacts(st.TouchMove)...)
	case len(st.TouchEnd) > 0:
		d.TouchEnd(contacts(st.TouchEnd)...)
	}
}

func (st Step) String() string {
	switch {
	case st.KeyDown != "":
		return "key_down " + st.KeyDown
	case st.KeyUp != "":
		return "key_up " + st.KeyUp
	case len(st.TouchStart) > 0:
		return "touch_start " + describe(st.TouchStart)
	case len(st.TouchMove) > 0:
		return "touch_move " + describe(st.TouchMove)
	case len(st.TouchEnd) > 0:
		return "touch_end " + describe(st.TouchEnd)
	}
	return "empty"
}

func describe(cs []Contact) string {
	out := ""
	for i, c := range cs {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s@%g", c.ID, c.X)
	}
	return out
}
