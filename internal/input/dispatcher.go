package input

import (
	"sync"

	"github.com/Versifine/laneshift/internal/event"
)

// Dispatcher is an EventSource fed by explicit calls. Hosts embed it and
// call KeyDown/TouchStart/... as raw events arrive; tests use it directly.
type Dispatcher struct {
	keyDown    *event.Registry[string]
	keyUp      *event.Registry[string]
	touchStart *event.Registry[[]Contact]
	touchMove  *event.Registry[[]Contact]
	touchEnd   *event.Registry[[]Contact]

	mu       sync.Mutex
	width    float64
	hasWidth bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		keyDown:    event.NewRegistry[string]("input.keydown"),
		keyUp:      event.NewRegistry[string]("input.keyup"),
		touchStart: event.NewRegistry[[]Contact]("input.touchstart"),
		touchMove:  event.NewRegistry[[]Contact]("input.touchmove"),
		touchEnd:   event.NewRegistry[[]Contact]("input.touchend"),
	}
}

func attach[T any](reg *event.Registry[T], fn func(T)) Detach {
	tok := reg.Add(fn)
	return func() { reg.Remove(tok) }
}

func (d *Dispatcher) OnKeyDown(fn func(key string)) Detach { return attach(d.keyDown, fn) }
func (d *Dispatcher) OnKeyUp(fn func(key string)) Detach   { return attach(d.keyUp, fn) }

func (d *Dispatcher) OnTouchStart(fn func(contacts []Contact)) Detach {
	return attach(d.touchStart, fn)
}

func (d *Dispatcher) OnTouchMove(fn func(contacts []Contact)) Detach {
	return attach(d.touchMove, fn)
}

func (d *Dispatcher) OnTouchEnd(fn func(contacts []Contact)) Detach {
	return attach(d.touchEnd, fn)
}

func (d *Dispatcher) SurfaceWidth() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.hasWidth
}

// SetSurfaceWidth records the tracked surface width. Non-positive widths mark
// the surface as unavailable.
func (d *Dispatcher) SetSurfaceWidth(w float64) {
	d.mu.Lock()
	d.width = w
	d.hasWidth = w > 0
	d.mu.Unlock()
}

func (d *Dispatcher) KeyDown(key string) { d.keyDown.Emit(key) }
func (d *Dispatcher) KeyUp(key string)   { d.keyUp.Emit(key) }

func (d *Dispatcher) TouchStart(contacts ...Contact) { d.touchStart.Emit(contacts) }
func (d *Dispatcher) TouchMove(contacts ...Contact)  { d.touchMove.Emit(contacts) }
func (d *Dispatcher) TouchEnd(contacts ...Contact)   { d.touchEnd.Emit(contacts) }

// Listeners reports how many handlers are attached across all event kinds.
func (d *Dispatcher) Listeners() int {
	return d.keyDown.Len() + d.keyUp.Len() + d.touchStart.Len() + d.touchMove.Len() + d.touchEnd.Len()
}
