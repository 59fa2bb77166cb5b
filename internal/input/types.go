// Package input reconciles keyboard, touch and pointer events into a single
// left/right intent.
package input

import "time"

type Modality int

const (
	ModalityNone Modality = iota
	ModalityKeyboard
	ModalityTouch
)

func (m Modality) String() string {
	switch m {
	case ModalityNone:
		return "none"
	case ModalityKeyboard:
		return "keyboard"
	case ModalityTouch:
		return "touch"
	default:
		return "unknown"
	}
}

type Zone int

const (
	ZoneLeft Zone = iota
	ZoneRight
)

func (z Zone) String() string {
	switch z {
	case ZoneLeft:
		return "left"
	case ZoneRight:
		return "right"
	default:
		return "unknown"
	}
}

// State is the published intent. Both directions may be set at once.
type State struct {
	Left     bool
	Right    bool
	Modality Modality
}

func (s State) SameIntent(o State) bool {
	return s.Left == o.Left && s.Right == o.Right
}

// Contact is one changed touch or pointer contact. Contacts without an ID are
// ignored.
type Contact struct {
	ID string
	X  float64
	Y  float64
}

// TouchRecord tracks a live contact. Zone is fixed when the contact starts.
type TouchRecord struct {
	StartX   float64
	StartY   float64
	CurrentX float64
	CurrentY float64
	Zone     Zone
}

func (r TouchRecord) DeltaX() float64 {
	return r.CurrentX - r.StartX
}

// Detach removes a registration made on an EventSource.
type Detach func()

// EventSource is the host's raw event stream. Handlers are invoked on the
// host's event goroutine; the host must not call them concurrently with
// Source methods.
type EventSource interface {
	OnKeyDown(fn func(key string)) Detach
	OnKeyUp(fn func(key string)) Detach
	OnTouchStart(fn func(contacts []Contact)) Detach
	OnTouchMove(fn func(contacts []Contact)) Detach
	OnTouchEnd(fn func(contacts []Contact)) Detach
	// SurfaceWidth reports the width of the tracked surface, or false when
	// the surface is not available.
	SurfaceWidth() (float64, bool)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads wall-clock time.
var SystemClock Clock = systemClock{}
