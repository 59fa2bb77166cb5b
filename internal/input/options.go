package input

import (
	"log/slog"
	"time"
)

const (
	DefaultDebounceInterval = 16 * time.Millisecond
	DefaultSwipeThreshold   = 30.0
	DefaultDeadZone         = 10.0
)

var (
	DefaultLeftKeys  = []string{"a", "arrowleft"}
	DefaultRightKeys = []string{"d", "arrowright"}
)

// Options configures a Source. Zero fields take the defaults above.
type Options struct {
	// DebounceInterval is the minimum time between two published changes.
	// A negative interval disables debouncing.
	DebounceInterval time.Duration
	// SwipeThreshold is the |deltaX| above which a contact is a swipe.
	SwipeThreshold float64
	// DeadZone is the |deltaX| at or below which a contact is a held press
	// in its start zone. A negative dead zone means none: only a contact
	// that has not moved counts as held.
	DeadZone  float64
	LeftKeys  []string
	RightKeys []string
	Clock     Clock
	Logger    *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		DebounceInterval: DefaultDebounceInterval,
		SwipeThreshold:   DefaultSwipeThreshold,
		DeadZone:         DefaultDeadZone,
		LeftKeys:         append([]string(nil), DefaultLeftKeys...),
		RightKeys:        append([]string(nil), DefaultRightKeys...),
		Clock:            SystemClock,
		Logger:           slog.Default(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DebounceInterval == 0 {
		o.DebounceInterval = d.DebounceInterval
	}
	if o.SwipeThreshold <= 0 {
		o.SwipeThreshold = d.SwipeThreshold
	}
	switch {
	case o.DeadZone == 0:
		o.DeadZone = d.DeadZone
	case o.DeadZone < 0:
		o.DeadZone = 0
	}
	if len(o.LeftKeys) == 0 {
		o.LeftKeys = d.LeftKeys
	}
	if len(o.RightKeys) == 0 {
		o.RightKeys = d.RightKeys
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}
